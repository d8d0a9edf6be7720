package modkit

import (
	"context"
	"io"

	"github.com/ferroh-aws/transcribe-comprehend/internal/modkit/repokit"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/config"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/logger"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/store"
)

// ObjectStore is the object store seam modules read archives from and write artifacts to
// *objstore.Client satisfies it
type ObjectStore interface {
	Download(ctx context.Context, bucket, key string, w io.Writer) (int64, error)
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) error
}

// Deps holds what modules share; PG and CH are nil when their store is disabled
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
	Obj ObjectStore
}
