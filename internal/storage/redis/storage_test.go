package redis_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/acrofts/digitduel/internal/storage"
	redisstorage "github.com/acrofts/digitduel/internal/storage/redis"
	"github.com/acrofts/digitduel/internal/storage/storagetest"
)

type RedisStorageTestSuite struct {
	storagetest.Suite
	minis []*miniredis.Miniredis
}

func (s *RedisStorageTestSuite) TearDownTest() {
	for _, m := range s.minis {
		m.Close()
	}
	s.minis = nil
}

func TestRedisStorageTestSuite(t *testing.T) {
	s := &RedisStorageTestSuite{}
	s.NewStorage = func() storage.Storage {
		mini, err := miniredis.Run()
		if err != nil {
			t.Fatalf("failed to start miniredis: %v", err)
		}
		s.minis = append(s.minis, mini)

		client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
		return redisstorage.NewWithClient(client, redisstorage.DefaultConfig())
	}
	suite.Run(t, s)
}
