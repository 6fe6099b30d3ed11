package task

import (
	"time"

	"taskflow/internal/errs"

	"github.com/google/uuid"
)

// SubTasks returns the direct subtasks in their current order. The slice is
// a copy; the tasks are not.
func (t *Task) SubTasks() []*Task {
	out := make([]*Task, len(t.subTasks))
	copy(out, t.subTasks)
	return out
}

// walk visits t and every descendant in pre-order using an explicit stack.
// The seen set makes corrupted (cyclic) data terminate instead of looping.
func (t *Task) walk(visit func(*Task)) {
	stack := []*Task{t}
	seen := make(map[uuid.UUID]struct{})
	for len(stack) > 0 {
		last := len(stack) - 1
		current := stack[last]
		stack = stack[:last]

		if _, ok := seen[current.id]; ok {
			continue
		}
		seen[current.id] = struct{}{}
		visit(current)

		for i := len(current.subTasks) - 1; i >= 0; i-- {
			stack = append(stack, current.subTasks[i])
		}
	}
}

// Subtree returns t followed by all of its descendants in pre-order.
func (t *Task) Subtree() []*Task {
	var out []*Task
	t.walk(func(n *Task) {
		out = append(out, n)
	})
	return out
}

// Descendants returns every task below t in pre-order.
func (t *Task) Descendants() []*Task {
	return t.Subtree()[1:]
}

func (t *Task) contains(id uuid.UUID) bool {
	found := false
	t.walk(func(n *Task) {
		if n.id == id {
			found = true
		}
	})
	return found
}

// Complete marks the task and its whole subtree completed at now. It returns
// the tasks whose completion state changed; completing an already completed
// task changes nothing.
func (t *Task) Complete(now time.Time) []*Task {
	if t.isCompleted {
		return nil
	}
	stamp := now.UTC()
	var changed []*Task
	t.walk(func(n *Task) {
		if n.isCompleted {
			return
		}
		n.isCompleted = true
		completedAt := stamp
		n.completedAt = &completedAt
		changed = append(changed, n)
	})
	return changed
}

// AssignToProject moves the task and its subtree into a project. Subtasks
// follow their parent and cannot be moved on their own.
func (t *Task) AssignToProject(projectID uuid.UUID) ([]*Task, error) {
	if projectID == uuid.Nil {
		return nil, errs.NewValidation("project_id", "must not be empty")
	}
	if t.HasParent() {
		return nil, errs.NewInvalidOperation("assign to project", "subtasks follow their parent's project")
	}
	return t.cascadeProject(projectID), nil
}

// UnassignFromProject moves the task and its subtree back to the inbox.
func (t *Task) UnassignFromProject() ([]*Task, error) {
	if t.HasParent() {
		return nil, errs.NewInvalidOperation("unassign from project", "subtasks follow their parent's project")
	}
	return t.cascadeProject(uuid.Nil), nil
}

func (t *Task) cascadeProject(projectID uuid.UUID) []*Task {
	var changed []*Task
	t.walk(func(n *Task) {
		if n.projectID == projectID {
			return
		}
		n.projectID = projectID
		changed = append(changed, n)
	})
	return changed
}

// AddSubTask attaches candidate below t. The candidate takes t's project
// (cascading through its own subtree) and the next sort order among t's
// subtasks. Its important flag is cleared since subtasks cannot be
// important. It returns the candidate's subtree, all of which changed.
func (t *Task) AddSubTask(candidate *Task) ([]*Task, error) {
	if candidate == nil {
		return nil, errs.NewValidation("subtask", "must not be empty")
	}
	if candidate.id == t.id {
		return nil, errs.NewInvalidOperation("add subtask", "a task cannot be its own subtask")
	}
	if candidate.subscriptionID != t.subscriptionID {
		return nil, errs.NewTenantMismatch("task", candidate.id.String())
	}
	for _, existing := range t.subTasks {
		if existing.id == candidate.id {
			return nil, errs.NewInvalidOperation("add subtask", "task is already a subtask of this task")
		}
	}
	if candidate.HasParent() {
		return nil, errs.NewInvalidOperation("add subtask", "task already belongs to another parent")
	}
	if candidate.contains(t.id) {
		return nil, errs.NewInvalidOperation("add subtask", "task would become its own ancestor")
	}

	next := 0
	for _, existing := range t.subTasks {
		if existing.sortOrder+1 > next {
			next = existing.sortOrder + 1
		}
	}

	candidate.parentTaskID = t.id
	candidate.sortOrder = next
	candidate.isImportant = false
	candidate.cascadeProject(t.projectID)
	t.subTasks = append(t.subTasks, candidate)
	return candidate.Subtree(), nil
}

// RemoveSubTask detaches a direct subtask, which becomes a top level task in
// the same project.
func (t *Task) RemoveSubTask(id uuid.UUID) (*Task, error) {
	for i, existing := range t.subTasks {
		if existing.id != id {
			continue
		}
		t.subTasks = append(t.subTasks[:i:i], t.subTasks[i+1:]...)
		existing.parentTaskID = uuid.Nil
		return existing, nil
	}
	return nil, errs.NewNotFound("subtask", id.String())
}

// Forest indexes a flat task list by id and links every task to its parent.
// Repositories return flat lists; services build a Forest before running
// cascading operations.
type Forest struct {
	byID  map[uuid.UUID]*Task
	roots []*Task
}

func NewForest(tasks []*Task) *Forest {
	f := &Forest{byID: make(map[uuid.UUID]*Task, len(tasks))}
	for _, t := range tasks {
		t.subTasks = nil
		f.byID[t.id] = t
	}
	for _, t := range tasks {
		parent, ok := f.byID[t.parentTaskID]
		if !t.HasParent() || !ok || parent == t {
			f.roots = append(f.roots, t)
			continue
		}
		parent.subTasks = append(parent.subTasks, t)
	}
	for _, t := range tasks {
		sortBySortOrder(t.subTasks)
	}
	sortBySortOrder(f.roots)
	return f
}

func (f *Forest) Get(id uuid.UUID) (*Task, bool) {
	t, ok := f.byID[id]
	return t, ok
}

// Roots returns the top level tasks ordered by sort order.
func (f *Forest) Roots() []*Task {
	out := make([]*Task, len(f.roots))
	copy(out, f.roots)
	return out
}

func (f *Forest) Len() int {
	return len(f.byID)
}

// All returns every task, each root followed by its subtree.
func (f *Forest) All() []*Task {
	out := make([]*Task, 0, len(f.byID))
	for _, root := range f.roots {
		out = append(out, root.Subtree()...)
	}
	return out
}
