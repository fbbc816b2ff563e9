// Package config provides configuration parsing for the vstore command.
//
// The configuration lives in vstore.json (or vstore.toml, vstore.yaml,
// vstore.yml) in the working directory. The codec is chosen by file
// extension. A missing file is not an error: defaults apply.
//
// # Configuration File Structure
//
//	{
//	  "name": "workspace",
//	  "devtools": {
//	    "host": "localhost",
//	    "port": 7777,
//	    "path": "/devtools",
//	    "allowOrigins": ["http://localhost:5173"]
//	  },
//	  "metrics": {"enabled": true, "path": "/metrics", "namespace": "vstore"},
//	  "tracing": {"enabled": false, "serviceName": "vstore"},
//	  "log": {"level": "info", "format": "text"},
//	  "workspace": {"seed": "seed.yaml", "watch": true, "debounce": "250ms"}
//	}
//
// # Usage
//
//	cfg, err := config.Load("vstore.yaml")
//	if err != nil {
//	    errors.PrintError(err)
//	    os.Exit(1)
//	}
//
//	fmt.Println("Devtools:", cfg.DevtoolsURL())
package config
