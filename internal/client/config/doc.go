// Package config loads runtime configuration for the gophauth CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c/--config.
//  3. GOPHAUTH_SERVER_ADDR, GOPHAUTH_SESSION_FILE and GOPHAUTH_REQUEST_TIMEOUT,
//     also read from a .env file.
//  4. Command-line flags, applied by the cli package.
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "session_file": "gophauth-session.db",
//	  "request_timeout": "10s"
//	}
package config
