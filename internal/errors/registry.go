package errors

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Configuration (C001-C099)

	"C001": {
		Category: CategoryConfig,
		Message:  "Cannot read configuration file",
		Detail:   "The configuration file exists but could not be opened or decoded.",
	},
	"C002": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is outside its allowed range or set.",
	},
	"C003": {
		Category: CategoryConfig,
		Message:  "Unsupported configuration format",
		Detail:   "Configuration files must end in .json, .toml, .yaml or .yml.",
	},
	"C004": {
		Category: CategoryConfig,
		Message:  "Cannot write configuration file",
		Detail:   "The configuration could not be encoded or written to disk.",
	},

	// Devtools (D001-D099)

	"D001": {
		Category: CategoryDevtools,
		Message:  "Devtools server failed",
		Detail:   "The devtools HTTP server stopped with an error.",
	},
	"D002": {
		Category: CategoryDevtools,
		Message:  "Devtools connection failed",
		Detail:   "Unable to open a websocket connection to the devtools server.",
	},
	"D003": {
		Category: CategoryDevtools,
		Message:  "Invalid devtools frame",
		Detail:   "A frame received from the devtools stream could not be decoded.",
	},
	"D004": {
		Category: CategoryDevtools,
		Message:  "Store not found",
		Detail:   "No store with this name is attached to the devtools server.",
	},

	// Workspace (W001-W099)

	"W001": {
		Category: CategoryWorkspace,
		Message:  "Cannot read workspace seed",
		Detail:   "The workspace seed file could not be opened or decoded.",
	},
	"W002": {
		Category: CategoryWorkspace,
		Message:  "Invalid workspace seed",
		Detail:   "The seed file decoded but references unknown projects or collections.",
	},
	"W003": {
		Category: CategoryWorkspace,
		Message:  "Cannot watch workspace seed",
		Detail:   "The file watcher could not be started for the seed file.",
	},

	// CLI (X001-X099)

	"X001": {
		Category: CategoryCLI,
		Message:  "Invalid output format",
		Detail:   "Supported output formats are json and yaml.",
	},
	"X002": {
		Category: CategoryCLI,
		Message:  "Command interrupted",
		Detail:   "The command was stopped before it finished.",
	},

	// Runtime (R001-R099)

	"R001": {
		Category: CategoryRuntime,
		Message:  "Store listener panicked",
		Detail:   "A listener or selector subscription panicked while being notified. The remaining listeners still ran.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template Template) {
	registry[code] = template
}
