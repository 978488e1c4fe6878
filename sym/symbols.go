// Package sym defines the glyphs plugctl prints in front of command output.
// They are stable across commands, help text and documentation.
package sym

// Command glyphs.
const (
	List     = "☰" // list: every discovered plugin
	Info     = "ⓘ" // info: one plugin's manifest
	Enable   = "●" // enable: mark a plugin active
	Disable  = "○" // disable: mark a plugin inactive
	Discover = "⟳" // discover: re-scan and activate
	Install  = "⤓" // install: fetch a plugin or package
	OpenAPI  = "▤" // openapi: API documentation
	Watch    = "◉" // watch: follow plugin changes
	Serve    = "⇄" // serve: provider routes over HTTP
	AM       = "≡" // am: configuration and settings
)

// Status markers.
const (
	OK      = "✓"
	Fail    = "✗"
	Warn    = "⚠"
	Pointer = "›"
)

// entry binds a glyph to its command and description
type entry struct {
	glyph       string
	command     string
	description string
}

// commands is the canonical mapping between glyphs and commands, in help order
var commands = []entry{
	{List, "list", "List all plugins"},
	{Info, "info", "Show plugin details"},
	{Enable, "enable", "Enable a plugin"},
	{Disable, "disable", "Disable a plugin"},
	{Discover, "discover", "Re-scan the plugins directory"},
	{Install, "install", "Install a plugin from a package, URL or directory"},
	{OpenAPI, "openapi", "Generate plugin API documentation"},
	{Watch, "watch", "Watch the plugins directory"},
	{Serve, "serve", "Serve active provider routes over HTTP"},
	{AM, "am", "Manage plugctl configuration"},
}

// Lookup tables built from commands at init time.
var (
	// SymbolToCommand maps glyph strings to their command names.
	SymbolToCommand map[string]string

	// CommandToSymbol maps command names to their glyph strings.
	CommandToSymbol map[string]string

	// CommandDescriptions provides the one-line help for each command.
	CommandDescriptions map[string]string

	// Order is the canonical command ordering for help output.
	Order []string
)

func init() {
	SymbolToCommand = make(map[string]string, len(commands))
	CommandToSymbol = make(map[string]string, len(commands))
	CommandDescriptions = make(map[string]string, len(commands))
	Order = make([]string, 0, len(commands))
	for _, e := range commands {
		SymbolToCommand[e.glyph] = e.command
		CommandToSymbol[e.command] = e.glyph
		CommandDescriptions[e.command] = e.description
		Order = append(Order, e.command)
	}
}

// Short returns "<glyph> <description>" for a command, for cobra's Short field
func Short(command string) string {
	g, ok := CommandToSymbol[command]
	if !ok {
		return CommandDescriptions[command]
	}
	return g + " " + CommandDescriptions[command]
}
