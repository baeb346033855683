package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/wellness360/config"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
)

var (
	managerMu   sync.RWMutex
	disks       = map[string]Disk{}
	defaultDisk = "local"
)

// Connect boots the local disk and, when S3_BUCKET is set, the s3 disk.
// STORAGE_DISK selects the default.
func Connect() error {
	local, err := NewLocal(config.UploadsRoot(), config.StorageURL())
	if err != nil {
		return err
	}
	RegisterDisk("local", local)

	if c := s3ConfigFromEnv(); c.Bucket != "" {
		d, err := NewS3Disk(context.Background(), c)
		if err != nil {
			logger.Warn("storage: s3 disk disabled", "error", err)
		} else {
			RegisterDisk("s3", d)
		}
	}

	name := config.StorageDisk()
	managerMu.Lock()
	defer managerMu.Unlock()
	if _, ok := disks[name]; !ok {
		return fmt.Errorf("storage: disk %q is not configured", name)
	}
	defaultDisk = name
	return nil
}

// Use returns the named disk. It panics for an unknown name.
func Use(name string) Disk {
	managerMu.RLock()
	d, ok := disks[name]
	managerMu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("storage: disk %q is not configured", name))
	}
	return d
}

// Default returns the STORAGE_DISK disk.
func Default() Disk {
	managerMu.RLock()
	name := defaultDisk
	managerMu.RUnlock()
	return Use(name)
}

// LocalDisk returns the local driver used to serve /uploads.
func LocalDisk() (*Local, bool) {
	managerMu.RLock()
	defer managerMu.RUnlock()
	l, ok := disks["local"].(*Local)
	return l, ok
}

// RegisterDisk plugs in a Disk under name.
func RegisterDisk(name string, d Disk) {
	managerMu.Lock()
	disks[name] = d
	managerMu.Unlock()
}
