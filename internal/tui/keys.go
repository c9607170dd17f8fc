package tui

import "github.com/charmbracelet/bubbles/key"

func binding(help string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], help))
}

type keyMap struct {
	TempoUp      key.Binding
	TempoDown    key.Binding
	TempoUpBig   key.Binding
	TempoDownBig key.Binding
	Pause        key.Binding
	Arm          key.Binding
	Mute         key.Binding
	AudioMod     key.Binding
	Open         key.Binding
	Reload       key.Binding
	Command      key.Binding
	Help         key.Binding
	Quit         key.Binding
}

var keys = keyMap{
	TempoUp:      binding("tempo +1", "+", "="),
	TempoDown:    binding("tempo -1", "-", "_"),
	TempoUpBig:   binding("tempo +10", "]"),
	TempoDownBig: binding("tempo -10", "["),
	Pause:        binding("pause/resume", "space", " "),
	Arm:          binding("arm", "a"),
	Mute:         binding("mute", "m"),
	AudioMod:     binding("audio mod", "x"),
	Open:         binding("open breakpoints", "o"),
	Reload:       binding("reload file", "r"),
	Command:      binding("command", ":"),
	Help:         binding("more", "?"),
	Quit:         binding("quit", "q", "ctrl+c"),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.TempoUp, k.TempoDown, k.Pause, k.Arm, k.Mute, k.Open, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.TempoUp, k.TempoDown, k.TempoUpBig, k.TempoDownBig},
		{k.Pause, k.Arm, k.Mute, k.AudioMod},
		{k.Open, k.Reload, k.Command},
		{k.Help, k.Quit},
	}
}
