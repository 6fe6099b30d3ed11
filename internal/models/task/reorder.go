package task

import (
	"cmp"
	"slices"

	"taskflow/internal/errs"

	"github.com/google/uuid"
)

// Scope identifies a sibling set: tasks with the same project (or none) and
// the same parent (or none). Sort orders are unique within a scope.
type Scope struct {
	ProjectID    uuid.UUID
	ParentTaskID uuid.UUID
}

func ScopeOf(t *Task) Scope {
	return Scope{ProjectID: t.projectID, ParentTaskID: t.parentTaskID}
}

func compareBySortOrder(a, b *Task) int {
	if c := cmp.Compare(a.sortOrder, b.sortOrder); c != 0 {
		return c
	}
	if c := a.createdAt.Compare(b.createdAt); c != 0 {
		return c
	}
	return slices.Compare(a.id[:], b.id[:])
}

func sortBySortOrder(tasks []*Task) {
	slices.SortStableFunc(tasks, compareBySortOrder)
}

// Reorder places the requested ids first, in the given order, followed by
// the remaining siblings in their current order, and renumbers the whole
// sequence from zero. It returns the full sequence and the tasks whose sort
// order changed. An empty request only sorts. Nothing is mutated when the
// request is rejected.
func Reorder(siblings []*Task, requested []uuid.UUID) (ordered []*Task, changed []*Task, err error) {
	ordered = make([]*Task, len(siblings))
	copy(ordered, siblings)
	sortBySortOrder(ordered)

	if len(siblings) > 0 {
		scope := ScopeOf(siblings[0])
		for _, s := range siblings[1:] {
			if ScopeOf(s) != scope {
				return nil, nil, errs.NewInvalidOperation("reorder", "tasks do not share a sibling scope")
			}
		}
	}

	if len(requested) == 0 {
		return ordered, nil, nil
	}

	byID := make(map[uuid.UUID]*Task, len(siblings))
	for _, s := range siblings {
		byID[s.id] = s
	}
	picked := make(map[uuid.UUID]struct{}, len(requested))
	for _, id := range requested {
		if _, dup := picked[id]; dup {
			return nil, nil, errs.New(errs.CodeValidation, "task id appears more than once in the requested order",
				errs.ToDetail("field", "ordered_ids"),
				errs.ToDetail("id", id.String()))
		}
		if _, ok := byID[id]; !ok {
			return nil, nil, errs.New(errs.CodeValidation, "task id is not a member of the sibling set",
				errs.ToDetail("field", "ordered_ids"),
				errs.ToDetail("id", id.String()))
		}
		picked[id] = struct{}{}
	}

	result := make([]*Task, 0, len(siblings))
	for _, id := range requested {
		result = append(result, byID[id])
	}
	for _, s := range ordered {
		if _, ok := picked[s.id]; !ok {
			result = append(result, s)
		}
	}

	for i, s := range result {
		if s.sortOrder != i {
			s.sortOrder = i
			changed = append(changed, s)
		}
	}
	return result, changed, nil
}
