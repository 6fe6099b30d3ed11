package task_test

import (
	"testing"
	"time"

	"taskflow/internal/errs"
	"taskflow/internal/models/task"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func siblings(t *testing.T, n int) []*task.Task {
	t.Helper()
	out := make([]*task.Task, n)
	for i := range out {
		tk, err := task.NewTask(tenant, "sibling", created.Add(time.Duration(i)*time.Minute), task.WithSortOrder(i*10))
		require.NoError(t, err)
		out[i] = tk
	}
	return out
}

func ids(tasks []*task.Task) []uuid.UUID {
	out := make([]uuid.UUID, len(tasks))
	for i, tk := range tasks {
		out[i] = tk.ID()
	}
	return out
}

func sortOrders(tasks []*task.Task) []int {
	out := make([]int, len(tasks))
	for i, tk := range tasks {
		out[i] = tk.SortOrder()
	}
	return out
}

func TestReorder_PrefixRequest(t *testing.T) {
	set := siblings(t, 5)
	requested := []uuid.UUID{set[3].ID(), set[1].ID()}

	ordered, changed, err := task.Reorder(set, requested)
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{set[3].ID(), set[1].ID(), set[0].ID(), set[2].ID(), set[4].ID()}, ids(ordered))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, sortOrders(ordered))
	assert.Len(t, changed, 5)

	again, changedAgain, err := task.Reorder(set, requested)
	require.NoError(t, err)
	assert.Equal(t, ids(ordered), ids(again))
	assert.Empty(t, changedAgain)
}

func TestReorder_EmptyRequestOnlySorts(t *testing.T) {
	set := siblings(t, 3)
	shuffled := []*task.Task{set[2], set[0], set[1]}

	ordered, changed, err := task.Reorder(shuffled, nil)
	require.NoError(t, err)
	assert.Equal(t, ids(set), ids(ordered))
	assert.Empty(t, changed)
	assert.Equal(t, []int{0, 10, 20}, sortOrders(ordered))
}

func TestReorder_TieBreaksOnCreatedAt(t *testing.T) {
	set := siblings(t, 3)
	for _, tk := range set {
		require.NoError(t, tk.SetSortOrder(0))
	}
	ordered, _, err := task.Reorder([]*task.Task{set[2], set[1], set[0]}, []uuid.UUID{set[2].ID()})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{set[2].ID(), set[0].ID(), set[1].ID()}, ids(ordered))
}

func TestReorder_RejectsBadRequests(t *testing.T) {
	tests := []struct {
		name      string
		requested func(set []*task.Task) []uuid.UUID
	}{
		{
			name: "duplicate id",
			requested: func(set []*task.Task) []uuid.UUID {
				return []uuid.UUID{set[0].ID(), set[1].ID(), set[0].ID()}
			},
		},
		{
			name: "unknown id",
			requested: func(set []*task.Task) []uuid.UUID {
				return []uuid.UUID{set[0].ID(), uuid.New()}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := siblings(t, 3)
			before := sortOrders(set)

			_, _, err := task.Reorder(set, tt.requested(set))
			assert.True(t, errs.IsValidation(err))
			assert.Equal(t, before, sortOrders(set), "nothing is mutated")
		})
	}
}

func TestReorder_RejectsMixedScopes(t *testing.T) {
	set := siblings(t, 2)
	_, err := set[1].AssignToProject(uuid.New())
	require.NoError(t, err)

	_, _, err = task.Reorder(set, []uuid.UUID{set[1].ID()})
	assert.True(t, errs.IsInvalidOperation(err))
}

func TestReorder_FullPermutationProperty(t *testing.T) {
	for n := 1; n <= 6; n++ {
		set := siblings(t, n)
		requested := make([]uuid.UUID, 0, n)
		for i := n - 1; i >= 0; i -= 2 {
			requested = append(requested, set[i].ID())
		}

		ordered, _, err := task.Reorder(set, requested)
		require.NoError(t, err)
		require.Len(t, ordered, n)

		seen := make(map[int]bool)
		for _, tk := range ordered {
			seen[tk.SortOrder()] = true
		}
		for i := 0; i < n; i++ {
			assert.True(t, seen[i], "sort order %d present for n=%d", i, n)
		}
		assert.ElementsMatch(t, ids(set), ids(ordered))
	}
}
