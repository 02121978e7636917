package memory_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/chatrelay/internal/adapters/storage/memory"
	"github.com/PabloGalante/chatrelay/internal/domain"
)

func TestHistoryStoreRecordsInOrder(t *testing.T) {
	ctx := context.Background()
	s := memory.NewHistoryStore()

	require.NoError(t, s.Record(ctx, domain.ChatHistoryRecord{UserName: "Ann", Message: "1", Response: "a"}))
	require.NoError(t, s.Record(ctx, domain.ChatHistoryRecord{UserName: "Ann", Message: "2", Response: "b"}))
	require.NoError(t, s.Record(ctx, domain.ChatHistoryRecord{UserName: "Bob", Message: "3", Response: "c"}))

	all := s.Records(0)
	require.Len(t, all, 3)
	assert.Equal(t, "1", all[0].Message)

	last := s.Records(2)
	require.Len(t, last, 2)
	assert.Equal(t, "2", last[0].Message)
	assert.Equal(t, "Bob", last[1].UserName)
}

func TestHistoryStoreInjectedFailure(t *testing.T) {
	ctx := context.Background()
	s := memory.NewHistoryStore()
	s.FailWith(errors.New("db down"))

	err := s.Record(ctx, domain.ChatHistoryRecord{UserName: "Ann"})
	require.EqualError(t, err, "db down")
	assert.Empty(t, s.Records(0))

	s.FailWith(nil)
	require.NoError(t, s.Record(ctx, domain.ChatHistoryRecord{UserName: "Ann"}))
	assert.Len(t, s.Records(0), 1)
}
