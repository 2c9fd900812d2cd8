//go:build unix

package reportstore

import (
	"os"
	"syscall"
)

type fileLock struct {
	file *os.File
}

// acquireLock takes an exclusive flock on path + ".lock", blocking until free.
func acquireLock(path string) (*fileLock, error) {
	// #nosec G304 -- lock file sits next to a validated report path
	file, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX); err != nil {
		_ = file.Close()
		return nil, err
	}
	return &fileLock{file: file}, nil
}

func (l *fileLock) release() error {
	if l.file == nil {
		return nil
	}
	unlockErr := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
