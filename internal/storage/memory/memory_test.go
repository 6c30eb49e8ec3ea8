package memory

import (
	"testing"

	"github.com/Spok95/candle-bot/internal/storage"
	"github.com/Spok95/candle-bot/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store { return New() })
}
