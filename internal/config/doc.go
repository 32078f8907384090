// Package config handles configuration loading for shop-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	chatwoot:
//	  api_token: "${CHATWOOT_API_TOKEN}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	chatwoot:
//	  timeout: "10s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	  allowed_origins: "https://app.example.com,https://admin.example.com"
//	  rate_limit: 20     # requests per second on /mcp, 0 disables
//	  rate_burst: 40
//
// Database:
//
//	database:
//	  path: "/var/lib/shop-gateway/shop.db"
//
// Chatwoot CRM (optional; omit the section to disable the CRM tools):
//
//	chatwoot:
//	  base_url: "https://chatwoot.example.com"
//	  account_id: "3"
//	  api_token: "${CHATWOOT_API_TOKEN}"
//	  timeout: "10s"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - HTTP address and database path presence
//   - Chatwoot credentials completeness (all three or none)
//   - Duration format validity
//
// # Usage
//
// Load configuration from a path:
//
//	cfg, err := config.Load("/etc/shop-gateway/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
