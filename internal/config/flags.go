package config

import "flag"

// Flags are the server command-line options. Only flags that were given on
// the command line override the configuration file.
type Flags struct {
	Path      string
	Port      int
	AdminPort int
	Debug     bool

	set map[string]bool
}

// ParseFlags registers the server flags on fs and parses args.
func ParseFlags(fs *flag.FlagSet, args []string) (Flags, error) {
	var f Flags
	fs.StringVar(&f.Path, "config", DefaultPath, "path of the JSON configuration file")
	fs.IntVar(&f.Port, "port", 0, "TCP port the game server listens on")
	fs.IntVar(&f.AdminPort, "admin-port", 0, "port of the gRPC health endpoint (0 disables it)")
	fs.BoolVar(&f.Debug, "debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
	return f, nil
}

// Apply copies explicitly given flags into cfg.
func (f Flags) Apply(cfg *Config) {
	if f.set["port"] {
		cfg.Server.Port = f.Port
	}
	if f.set["admin-port"] {
		cfg.Server.AdminPort = f.AdminPort
	}
	if f.set["debug"] {
		cfg.DebugMode = f.Debug
	}
}
