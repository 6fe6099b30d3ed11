// Package section implements "My Task Flow" sections: named rules that pick
// tasks by due bucket and inclusion flags, plus a hand-curated list of task
// ids that always match.
package section

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"taskflow/internal/errs"

	"github.com/google/uuid"
)

const MaxNameLength = 200

type Bucket int

const (
	BucketAny Bucket = iota
	BucketToday
	BucketThisWeek
	BucketUpcoming
	BucketRecent
	BucketNoDueDate
	BucketImportant
)

var bucketNames = map[Bucket]string{
	BucketAny:       "any",
	BucketToday:     "today",
	BucketThisWeek:  "this_week",
	BucketUpcoming:  "upcoming",
	BucketRecent:    "recent",
	BucketNoDueDate: "no_due_date",
	BucketImportant: "important",
}

func (b Bucket) String() string {
	if name, ok := bucketNames[b]; ok {
		return name
	}
	return fmt.Sprintf("bucket(%d)", int(b))
}

func (b Bucket) IsValid() bool {
	_, ok := bucketNames[b]
	return ok
}

func ParseBucket(s string) (Bucket, error) {
	for b, name := range bucketNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return b, nil
		}
	}
	return 0, errs.NewValidation("due_bucket", fmt.Sprintf("unknown bucket %q", s))
}

func (b Bucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Bucket) UnmarshalText(data []byte) error {
	parsed, err := ParseBucket(string(data))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Rule is always replaced as a whole.
type Rule struct {
	DueBucket              Bucket
	IncludeAssignedTasks   bool
	IncludeUnassignedTasks bool
	IncludeDoneTasks       bool
	IncludeCancelledTasks  bool
}

// DefaultRule is the rule of a freshly created user section.
func DefaultRule() Rule {
	return Rule{
		DueBucket:              BucketAny,
		IncludeAssignedTasks:   true,
		IncludeUnassignedTasks: true,
	}
}

type Section struct {
	id             uuid.UUID
	subscriptionID uuid.UUID
	name           string
	sortOrder      int
	isSystem       bool
	rule           Rule
	manualTasks    map[uuid.UUID]struct{}
	version        int
}

func validateName(name string) (string, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return "", errs.NewValidation("name", "must not be empty")
	}
	if utf8.RuneCountInString(clean) > MaxNameLength {
		return "", errs.NewValidation("name", fmt.Sprintf("must be at most %d characters", MaxNameLength))
	}
	return clean, nil
}

// NewSection creates a user section with the default rule.
func NewSection(subscriptionID uuid.UUID, name string, sortOrder int) (*Section, error) {
	if subscriptionID == uuid.Nil {
		return nil, errs.NewValidation("subscription_id", "must not be empty")
	}
	clean, err := validateName(name)
	if err != nil {
		return nil, err
	}
	if sortOrder < 0 {
		return nil, errs.NewValidation("sort_order", "must not be negative")
	}
	return &Section{
		id:             uuid.New(),
		subscriptionID: subscriptionID,
		name:           clean,
		sortOrder:      sortOrder,
		rule:           DefaultRule(),
		manualTasks:    make(map[uuid.UUID]struct{}),
	}, nil
}

var systemDefaults = []struct {
	name   string
	bucket Bucket
}{
	{"Today", BucketToday},
	{"This Week", BucketThisWeek},
	{"Upcoming", BucketUpcoming},
	{"No Due Date", BucketNoDueDate},
	{"Important", BucketImportant},
	{"Recent", BucketRecent},
}

// SystemDefaults returns the built-in sections seeded once per subscription.
func SystemDefaults(subscriptionID uuid.UUID) []*Section {
	out := make([]*Section, 0, len(systemDefaults))
	for i, def := range systemDefaults {
		rule := DefaultRule()
		rule.DueBucket = def.bucket
		out = append(out, &Section{
			id:             uuid.New(),
			subscriptionID: subscriptionID,
			name:           def.name,
			sortOrder:      i,
			isSystem:       true,
			rule:           rule,
			manualTasks:    make(map[uuid.UUID]struct{}),
		})
	}
	return out
}

func (s *Section) ID() uuid.UUID             { return s.id }
func (s *Section) SubscriptionID() uuid.UUID { return s.subscriptionID }
func (s *Section) Name() string              { return s.name }
func (s *Section) SortOrder() int            { return s.sortOrder }
func (s *Section) IsSystemSection() bool     { return s.isSystem }
func (s *Section) Rule() Rule                { return s.rule }
func (s *Section) Version() int              { return s.version }
func (s *Section) SetVersion(version int)    { s.version = version }

// Rename is only allowed on user sections.
func (s *Section) Rename(name string) error {
	if s.isSystem {
		return errs.NewInvalidOperation("rename section", "system sections keep their name")
	}
	clean, err := validateName(name)
	if err != nil {
		return err
	}
	s.name = clean
	return nil
}

func (s *Section) UpdateRule(rule Rule) error {
	if !rule.DueBucket.IsValid() {
		return errs.NewValidation("due_bucket", "unknown bucket")
	}
	s.rule = rule
	return nil
}

func (s *Section) SetSortOrder(n int) error {
	if n < 0 {
		return errs.NewValidation("sort_order", "must not be negative")
	}
	s.sortOrder = n
	return nil
}

func (s *Section) IncludeTask(taskID uuid.UUID) error {
	if taskID == uuid.Nil {
		return errs.NewValidation("task_id", "must not be empty")
	}
	s.manualTasks[taskID] = struct{}{}
	return nil
}

func (s *Section) RemoveTask(taskID uuid.UUID) {
	delete(s.manualTasks, taskID)
}

func (s *Section) HasManualTask(taskID uuid.UUID) bool {
	_, ok := s.manualTasks[taskID]
	return ok
}

// ManualTaskIDs returns the curated ids in a stable order.
func (s *Section) ManualTaskIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s.manualTasks))
	for id := range s.manualTasks {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})
	return out
}

type Snapshot struct {
	ID              uuid.UUID
	SubscriptionID  uuid.UUID
	Name            string
	SortOrder       int
	IsSystemSection bool
	Rule            Rule
	ManualTaskIDs   []uuid.UUID
	Version         int
}

func (s *Section) Snapshot() Snapshot {
	return Snapshot{
		ID:              s.id,
		SubscriptionID:  s.subscriptionID,
		Name:            s.name,
		SortOrder:       s.sortOrder,
		IsSystemSection: s.isSystem,
		Rule:            s.rule,
		ManualTaskIDs:   s.ManualTaskIDs(),
		Version:         s.version,
	}
}

func Rehydrate(snap Snapshot) *Section {
	s := &Section{
		id:             snap.ID,
		subscriptionID: snap.SubscriptionID,
		name:           snap.Name,
		sortOrder:      snap.SortOrder,
		isSystem:       snap.IsSystemSection,
		rule:           snap.Rule,
		manualTasks:    make(map[uuid.UUID]struct{}, len(snap.ManualTaskIDs)),
		version:        snap.Version,
	}
	for _, id := range snap.ManualTaskIDs {
		s.manualTasks[id] = struct{}{}
	}
	return s
}
