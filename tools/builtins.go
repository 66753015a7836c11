package tools

func init() {
	MustRegisterTool(
		"paper_lookup",
		"Retrieve a short abstract for an academic paper by title (simulated).",
		func() Tool { return NewPaperLookup() },
	)
	MustRegisterTool(
		"technical_check",
		"Check a paper summary for technical accuracy; returns pass or revise (simulated).",
		func() Tool { return NewTechnicalCheck() },
	)
	MustRegisterTool(
		"style_check",
		"Check a social post for platform-appropriate style; returns pass or revise (simulated).",
		func() Tool { return NewStyleCheck() },
	)
}
