package memory_test

import (
	"testing"

	"github.com/m-mizutani/bbmirror/pkg/repository/memory"
	"github.com/m-mizutani/bbmirror/pkg/repository/testhelper"
)

func TestMemorySnapshotStore(t *testing.T) {
	store := memory.New()
	testhelper.TestAll(t, store)
}
