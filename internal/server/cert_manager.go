package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"recruitagent/internal/config"
	"recruitagent/internal/errors"
)

// CertificateManager serves the current server certificate and client CA
// pool, reloading both from disk when the files change.
type CertificateManager struct {
	mu sync.RWMutex

	tlsConfig config.TLSConfig
	watcher   *CertWatcher
	logger    *errors.Logger

	serverCert *tls.Certificate
	caPool     *x509.CertPool
	notAfter   time.Time

	metrics CertificateMetrics
}

// CertificateMetrics counts reload attempts
type CertificateMetrics struct {
	ReloadCount        int64     `json:"reload_count"`
	ReloadSuccessCount int64     `json:"reload_success_count"`
	ReloadFailureCount int64     `json:"reload_failure_count"`
	LastReloadTime     time.Time `json:"last_reload_time"`
	LastReloadSuccess  bool      `json:"last_reload_success"`
	LastReloadError    string    `json:"last_reload_error,omitempty"`
}

// NewCertificateManager loads the configured certificate files once.
// Reloading needs files; PEM content from Vault is loaded statically.
func NewCertificateManager(tlsConfig config.TLSConfig, logger *errors.Logger) (*CertificateManager, error) {
	if logger == nil {
		logger = errors.Nop()
	}
	if tlsConfig.CertFile == "" || tlsConfig.KeyFile == "" {
		return nil, fmt.Errorf("certificate reload requires certFile and keyFile")
	}

	cm := &CertificateManager{tlsConfig: tlsConfig, logger: logger}
	if err := cm.ReloadCertificates(); err != nil {
		return nil, err
	}
	return cm, nil
}

// Start watches the certificate files.
func (cm *CertificateManager) Start() error {
	files := []string{cm.tlsConfig.CertFile, cm.tlsConfig.KeyFile}
	if cm.tlsConfig.Mode == "mutual" {
		files = append(files, cm.tlsConfig.CAFile)
	}

	cm.watcher = NewCertWatcher(files, cm.tlsConfig.Reload.DebounceDelay, cm.triggerReload, cm.logger)
	return cm.watcher.Start()
}

// Stop stops watching. The last loaded certificates stay in use.
func (cm *CertificateManager) Stop() error {
	if cm.watcher == nil {
		return nil
	}
	return cm.watcher.Stop()
}

func (cm *CertificateManager) triggerReload() {
	if err := cm.ReloadCertificates(); err != nil {
		cm.logger.LogError(err, "Failed to reload TLS certificates, keeping previous ones")
		return
	}
	cm.logger.Info("TLS certificates reloaded successfully")
}

// ReloadCertificates reads the key pair and, for mutual TLS, the CA file.
// Nothing is replaced unless every file loads.
func (cm *CertificateManager) ReloadCertificates() error {
	cert, notAfter, caPool, err := cm.load()

	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.metrics.ReloadCount++
	cm.metrics.LastReloadTime = time.Now()
	cm.metrics.LastReloadSuccess = err == nil
	if err != nil {
		cm.metrics.ReloadFailureCount++
		cm.metrics.LastReloadError = err.Error()
		return err
	}
	cm.metrics.ReloadSuccessCount++
	cm.metrics.LastReloadError = ""

	cm.serverCert = cert
	cm.notAfter = notAfter
	if caPool != nil {
		cm.caPool = caPool
	}
	return nil
}

func (cm *CertificateManager) load() (*tls.Certificate, time.Time, *x509.CertPool, error) {
	cert, err := tls.LoadX509KeyPair(cm.tlsConfig.CertFile, cm.tlsConfig.KeyFile)
	if err != nil {
		return nil, time.Time{}, nil, fmt.Errorf("failed to load server cert/key from files: %w", err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, time.Time{}, nil, fmt.Errorf("failed to parse server certificate: %w", err)
	}
	cert.Leaf = leaf

	if cm.tlsConfig.Mode != "mutual" || cm.tlsConfig.CAFile == "" {
		return &cert, leaf.NotAfter, nil, nil
	}

	caPEM, err := os.ReadFile(cm.tlsConfig.CAFile)
	if err != nil {
		return nil, time.Time{}, nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, time.Time{}, nil, fmt.Errorf("failed to append CA cert")
	}
	return &cert, leaf.NotAfter, pool, nil
}

// GetServerCertificate implements tls.Config.GetCertificate.
func (cm *CertificateManager) GetServerCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.serverCert == nil {
		return nil, fmt.Errorf("no server certificate loaded")
	}
	return cm.serverCert, nil
}

// GetCACertPool returns the current client CA pool, nil outside mutual TLS.
func (cm *CertificateManager) GetCACertPool() *x509.CertPool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.caPool
}

// ConfigForClient returns a per-handshake copy of base using the current
// client CA pool, so a rotated CA applies to new connections.
func (cm *CertificateManager) ConfigForClient(base *tls.Config) func(*tls.ClientHelloInfo) (*tls.Config, error) {
	return func(*tls.ClientHelloInfo) (*tls.Config, error) {
		cfg := base.Clone()
		cfg.GetConfigForClient = nil
		if pool := cm.GetCACertPool(); pool != nil {
			cfg.ClientCAs = pool
		}
		return cfg, nil
	}
}

// CheckExpiry returns the time left before the server certificate expires.
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.serverCert == nil {
		return 0, fmt.Errorf("no server certificate loaded")
	}
	return time.Until(cm.notAfter), nil
}

// GetMetrics returns a snapshot of the reload counters.
func (cm *CertificateManager) GetMetrics() CertificateMetrics {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.metrics
}

// Stats summarises reload state for the health endpoint.
func (cm *CertificateManager) Stats() map[string]any {
	stats := map[string]any{
		"metrics":   cm.GetMetrics(),
		"watching":  false,
		"not_after": cm.notAfterTime(),
	}
	if cm.watcher != nil {
		stats["watching"] = cm.watcher.IsRunning()
		stats["watched_files"] = cm.watcher.WatchedFiles()
	}
	return stats
}

func (cm *CertificateManager) notAfterTime() time.Time {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.notAfter
}
