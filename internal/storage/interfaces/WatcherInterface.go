package interfaces

import "context"

type ReloaderInterface interface {
	Reload(ctx context.Context) error
}

type WatcherInterface interface {
	Init() error
	Stop()
}

type LockInterface interface {
	Acquire() error
	Release() error
}
