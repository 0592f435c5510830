package server

import (
	"fmt"
	"sync"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
)

const defaultKeyPollInterval = time.Minute

// KeysReloadCallback receives the rotated API key list
type KeysReloadCallback func(keys []string)

// VaultWatcher polls a Vault KVv2 secret holding the server API keys and
// hands the new list to its callback whenever the secret version increases.
type VaultWatcher struct {
	mu sync.RWMutex

	client         config.SecretReader
	secretPath     string
	pollInterval   time.Duration
	reloadCallback KeysReloadCallback
	logger         *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
	lastReload  time.Time
	keyCount    int
}

// NewVaultWatcher creates a new VaultWatcher
func NewVaultWatcher(client config.SecretReader, secretPath string, pollInterval time.Duration, reloadCallback KeysReloadCallback, logger *errors.Logger) *VaultWatcher {
	if pollInterval <= 0 {
		pollInterval = defaultKeyPollInterval
	}
	return &VaultWatcher{
		client:         client,
		secretPath:     secretPath,
		pollInterval:   pollInterval,
		reloadCallback: reloadCallback,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Start records the current secret version and begins polling
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}

	// Keys at the current version were already applied by config loading
	if secret, err := vw.client.GetSecretV2(vw.secretPath); err == nil && secret != nil {
		vw.lastVersion = secret.Version
	}

	vw.running = true
	go vw.pollLoop()
	if vw.logger != nil {
		vw.logger.Info("Vault key watcher started", "secret_path", vw.secretPath, "poll_interval", vw.pollInterval)
	}
	return nil
}

// Stop stops the Vault watcher
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	if vw.logger != nil {
		vw.logger.Info("Vault key watcher stopped")
	}
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := vw.poll(); err != nil && vw.logger != nil {
				vw.logger.LogError(err, "Failed to refresh API keys from Vault")
			}
		case <-vw.stopChan:
			return
		}
	}
}

// poll reloads the keys once if the secret version moved forward
func (vw *VaultWatcher) poll() error {
	changed, err := vw.checkForUpdates()
	if err != nil || !changed {
		return err
	}

	keys, err := vw.client.GetStringSliceSecret(vw.secretPath, "keys")
	if err != nil {
		return fmt.Errorf("failed to fetch rotated API keys: %w", err)
	}
	// An empty list would silently disable authentication
	if len(keys) == 0 {
		return fmt.Errorf("secret %s has no API keys, keeping the current set", vw.secretPath)
	}

	vw.reloadCallback(keys)

	vw.mu.Lock()
	vw.lastReload = time.Now()
	vw.keyCount = len(keys)
	vw.mu.Unlock()

	if vw.logger != nil {
		vw.logger.Info("API keys rotated from Vault", "count", len(keys))
	}
	return nil
}

// checkForUpdates checks if the Vault secret version has changed
func (vw *VaultWatcher) checkForUpdates() (bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		return false, fmt.Errorf("secret %s not found", vw.secretPath)
	}

	vw.mu.Lock()
	defer vw.mu.Unlock()
	if secret.Version > vw.lastVersion {
		vw.lastVersion = secret.Version
		return true, nil
	}
	return false, nil
}

// Status returns the current status of the VaultWatcher for health reporting
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	status := map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
	}
	if !vw.lastReload.IsZero() {
		status["last_reload"] = vw.lastReload.Format(time.RFC3339)
		status["keys_loaded"] = vw.keyCount
	}
	return status
}
