package memory_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/acrofts/digitduel/internal/storage"
	"github.com/acrofts/digitduel/internal/storage/memory"
	"github.com/acrofts/digitduel/internal/storage/storagetest"
)

type MemoryStorageTestSuite struct {
	storagetest.Suite
}

func TestMemoryStorageTestSuite(t *testing.T) {
	s := &MemoryStorageTestSuite{}
	s.NewStorage = func() storage.Storage {
		return memory.New()
	}
	suite.Run(t, s)
}
