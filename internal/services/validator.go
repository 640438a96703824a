package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/repos"
	"github.com/mailpath/mailpath-backend/internal/types"
)

const (
	IssueGap       = "gap"       // sequence numbers are not contiguous from 1
	IssueDuplicate = "duplicate" // two events share a sequence number
	IssueOrder     = "order"     // sequence order disagrees with receivedAt order
)

type ValidationIssue struct {
	SubscriberID string `json:"subscriber_id"`
	Kind         string `json:"kind"`
	Detail       string `json:"detail"`
}

type ValidationReport struct {
	Valid                 bool              `json:"valid"`
	SubscribersChecked    int               `json:"subscribers_checked"`
	SubscribersWithIssues int               `json:"subscribers_with_issues"`
	EventsChecked         int               `json:"events_checked"`
	Issues                []ValidationIssue `json:"issues"`
}

type RepairResult struct {
	SubscribersRepaired int `json:"subscribers_repaired"`
	EventsRenumbered    int `json:"events_renumbered"`
	// PathEdgesRebuilt is the edge count after the post-repair graph rebuild,
	// zero when nothing needed renumbering and the graph was left untouched.
	PathEdgesRebuilt int64 `json:"path_edges_rebuilt"`
}

// ValidatorService checks the per-subscriber sequencing invariants and can
// restore them after out-of-band writes.
type ValidatorService interface {
	Validate(ctx context.Context, projectID uuid.UUID) (*ValidationReport, error)
	// Repair renumbers every broken sequence to 1..N in receivedAt order
	// (ties keep their current relative order) and rebuilds the path graph
	// when anything changed.
	Repair(ctx context.Context, projectID uuid.UUID) (*RepairResult, error)
}

type validatorService struct {
	db        *gorm.DB
	log       *logger.Logger
	events    repos.PathEventRepo
	pathGraph PathGraphService
}

func NewValidatorService(db *gorm.DB, baseLog *logger.Logger, events repos.PathEventRepo, pathGraph PathGraphService) ValidatorService {
	return &validatorService{
		db:        db,
		log:       baseLog.With("service", "ValidatorService"),
		events:    events,
		pathGraph: pathGraph,
	}
}

func (s *validatorService) Validate(ctx context.Context, projectID uuid.UUID) (*ValidationReport, error) {
	if projectID == uuid.Nil {
		return nil, types.InvalidInputError("validate: projectID is required")
	}
	report := &ValidationReport{Valid: true, Issues: []ValidationIssue{}}

	grouped, err := s.eventsBySubscriber(ctx, nil, projectID)
	if err != nil {
		return nil, err
	}
	// report issues in subscriber order so repeated runs compare cleanly
	subscribers, err := s.events.DistinctSubscribers(ctx, nil, projectID)
	if err != nil {
		return nil, err
	}
	for _, subscriberID := range subscribers {
		events := grouped[subscriberID]
		report.SubscribersChecked++
		report.EventsChecked += len(events)
		if issues := checkSequence(subscriberID, events); len(issues) > 0 {
			report.SubscribersWithIssues++
			report.Issues = append(report.Issues, issues...)
		}
	}
	if len(report.Issues) > 0 {
		report.Valid = false
	}
	return report, nil
}

func (s *validatorService) Repair(ctx context.Context, projectID uuid.UUID) (*RepairResult, error) {
	if projectID == uuid.Nil {
		return nil, types.InvalidInputError("repair: projectID is required")
	}
	result := &RepairResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		grouped, err := s.eventsBySubscriber(ctx, tx, projectID)
		if err != nil {
			return err
		}
		for subscriberID, events := range grouped {
			if len(checkSequence(subscriberID, events)) == 0 {
				continue
			}
			// receivedAt order; equal timestamps keep their current seq order
			sort.SliceStable(events, func(i, j int) bool {
				if events[i].ReceivedAt.Equal(events[j].ReceivedAt) {
					return events[i].Seq < events[j].Seq
				}
				return events[i].ReceivedAt.Before(events[j].ReceivedAt)
			})
			repaired := false
			for i, event := range events {
				want := i + 1
				if event.Seq == want {
					continue
				}
				if err := s.events.UpdateSeq(ctx, tx, event.ID, want); err != nil {
					return err
				}
				event.Seq = want
				result.EventsRenumbered++
				repaired = true
			}
			if repaired {
				result.SubscribersRepaired++
			}
			// post-condition: renumbering must have restored the sequence;
			// roll the whole repair back if it somehow has not
			if len(checkSequence(subscriberID, events)) > 0 {
				return types.InvariantError(fmt.Sprintf("repair left subscriber %s with a broken sequence", subscriberID))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.EventsRenumbered > 0 {
		if err := s.pathGraph.Rebuild(ctx, nil, projectID); err != nil {
			return nil, err
		}
		edges, err := s.pathGraph.ListEdges(ctx, projectID)
		if err != nil {
			return nil, err
		}
		result.PathEdgesRebuilt = int64(len(edges))
		s.log.Info("sequences repaired",
			"project_id", projectID,
			"subscribers_repaired", result.SubscribersRepaired,
			"events_renumbered", result.EventsRenumbered,
			"path_edges_rebuilt", result.PathEdgesRebuilt,
		)
	}
	return result, nil
}

func (s *validatorService) eventsBySubscriber(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (map[string][]*types.PathEvent, error) {
	all, err := s.events.ListByProject(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	grouped := map[string][]*types.PathEvent{}
	for _, event := range all {
		grouped[event.SubscriberID] = append(grouped[event.SubscriberID], event)
	}
	return grouped, nil
}

// checkSequence expects events already ordered by seq ascending.
func checkSequence(subscriberID string, events []*types.PathEvent) []ValidationIssue {
	var issues []ValidationIssue
	seen := map[int]struct{}{}
	for _, event := range events {
		if _, dup := seen[event.Seq]; dup {
			issues = append(issues, ValidationIssue{
				SubscriberID: subscriberID,
				Kind:         IssueDuplicate,
				Detail:       fmt.Sprintf("seq %d assigned more than once", event.Seq),
			})
		}
		seen[event.Seq] = struct{}{}
	}
	for want := 1; want <= len(seen); want++ {
		if _, ok := seen[want]; !ok {
			issues = append(issues, ValidationIssue{
				SubscriberID: subscriberID,
				Kind:         IssueGap,
				Detail:       fmt.Sprintf("seq %d missing, expected contiguous 1..%d", want, len(seen)),
			})
		}
	}
	for i := 1; i < len(events); i++ {
		if events[i].ReceivedAt.Before(events[i-1].ReceivedAt) {
			issues = append(issues, ValidationIssue{
				SubscriberID: subscriberID,
				Kind:         IssueOrder,
				Detail:       fmt.Sprintf("seq %d received before seq %d", events[i].Seq, events[i-1].Seq),
			})
		}
	}
	return issues
}
