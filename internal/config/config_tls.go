package config

import "fmt"

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	switch tls.Mode {
	case "disabled":
		return nil
	case "server", "mutual":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}

	sources := []struct {
		name, file, content string
		required            bool
	}{
		{"certificate", tls.CertFile, tls.CertContent, true},
		{"private key", tls.KeyFile, tls.KeyContent, true},
		{"CA certificate", tls.CAFile, tls.CAContent, tls.Mode == "mutual"},
	}
	for _, src := range sources {
		if src.file != "" && src.content != "" {
			return fmt.Errorf("cannot specify both a file and content for the TLS %s - choose one", src.name)
		}
		if src.required && src.file == "" && src.content == "" {
			return fmt.Errorf("TLS %s is required for %s mode (provide either a file or content)", src.name, tls.Mode)
		}
	}

	if tls.Mode == "mutual" {
		switch tls.ClientAuthPolicy {
		case "require", "request", "verify", "":
		default:
			return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
		}
	}

	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
}
