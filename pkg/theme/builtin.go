package theme

// thRegisterBuiltins registers all built-in themes in the registry.
func thRegisterBuiltins() {
	for _, t := range []Theme{
		thPlainTheme(),
		thDefaultTheme(),
		thSolarizedDarkTheme(),
		thGruvboxDarkTheme(),
	} {
		Register(t)
	}
}

// thPlainTheme leaves backgrounds to the bar and only colors abnormal
// states, matching a stock i3bar look.
func thPlainTheme() Theme {
	return Theme{
		Name:     "plain",
		Idle:     StateColors{},
		Info:     StateColors{FG: "#61afef"},
		Good:     StateColors{FG: "#98c379"},
		Warning:  StateColors{FG: "#e5c07b"},
		Critical: StateColors{FG: "#e06c75"},
	}
}

// thDefaultTheme returns the dark neutral theme with colored backgrounds.
func thDefaultTheme() Theme {
	return Theme{
		Name:        "default",
		Idle:        StateColors{FG: "#d4d4d4", BG: "#1e1e1e"},
		Info:        StateColors{FG: "#1e1e1e", BG: "#61afef"},
		Good:        StateColors{FG: "#1e1e1e", BG: "#4ec970"},
		Warning:     StateColors{FG: "#1e1e1e", BG: "#e5c07b"},
		Critical:    StateColors{FG: "#1e1e1e", BG: "#e06c75"},
		Separator:   "",
		SeparatorFG: "#3e3e3e",
	}
}

// thSolarizedDarkTheme returns the Solarized Dark palette.
func thSolarizedDarkTheme() Theme {
	return Theme{
		Name:        "solarized-dark",
		Idle:        StateColors{FG: "#93a1a1", BG: "#002b36"},
		Info:        StateColors{FG: "#002b36", BG: "#268bd2"},
		Good:        StateColors{FG: "#002b36", BG: "#859900"},
		Warning:     StateColors{FG: "#002b36", BG: "#b58900"},
		Critical:    StateColors{FG: "#002b36", BG: "#dc322f"},
		Separator:   "",
		SeparatorFG: "#073642",
	}
}

// thGruvboxDarkTheme returns the warm retro Gruvbox palette.
func thGruvboxDarkTheme() Theme {
	return Theme{
		Name:        "gruvbox-dark",
		Idle:        StateColors{FG: "#ebdbb2", BG: "#282828"},
		Info:        StateColors{FG: "#282828", BG: "#83a598"},
		Good:        StateColors{FG: "#282828", BG: "#b8bb26"},
		Warning:     StateColors{FG: "#282828", BG: "#fabd2f"},
		Critical:    StateColors{FG: "#282828", BG: "#fb4934"},
		Separator:   "",
		SeparatorFG: "#504945",
	}
}
