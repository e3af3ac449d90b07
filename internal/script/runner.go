// Package script plays stored action sequences back against running
// profiles.
package script

import (
	"fmt"
	"log"
	"time"

	"github.com/browserfarm/browserfarm/internal/session"
	"github.com/browserfarm/browserfarm/pkg/models"
)

// Store is the script persistence the runner needs
type Store interface {
	GetScript(id int64) (*models.Script, error)
	MarkScriptRun(id int64, at time.Time) error
	RecordScriptOutcome(id int64, successes, failures int64) error
}

// Runner executes scripts through the orchestrator's fan-out contract
type Runner struct {
	mgr   *session.Manager
	store Store
}

func NewRunner(mgr *session.Manager, st Store) *Runner {
	return &Runner{mgr: mgr, store: st}
}

// Run plays a script against the given profiles, or against every running
// profile when none are named. Per target, actions execute strictly in
// authored order; a failing action stops that profile's playback unless it
// is marked continueOnError. Aggregate counters are updated once per
// invocation, independent of the per-profile outcomes.
func (r *Runner) Run(scriptID int64, profileIDs []int64) (*models.ScriptRunResult, error) {
	sc, err := r.store.GetScript(scriptID)
	if err != nil {
		return nil, err
	}

	actions, err := parseActions(sc.Actions)
	if err != nil {
		return nil, err
	}

	if err := r.store.MarkScriptRun(scriptID, time.Now()); err != nil {
		log.Printf("[script] failed to mark run for script %d: %v", scriptID, err)
	}

	targets := profileIDs
	if len(targets) == 0 {
		for id, status := range r.mgr.StatusOfAll() {
			if status.Status == models.StateRunning {
				targets = append(targets, id)
			}
		}
	}
	if len(targets) == 0 {
		// The whole invocation failed to run anywhere.
		if err := r.store.RecordScriptOutcome(scriptID, 0, 1); err != nil {
			log.Printf("[script] failed to record outcome for script %d: %v", scriptID, err)
		}
		return nil, fmt.Errorf("no running browsers to execute script %d", scriptID)
	}

	result := &models.ScriptRunResult{ScriptID: scriptID}
	var successes, failures int64

	for _, profileID := range targets {
		pr := r.runForProfile(profileID, sc.Actions, actions)
		if pr.Success {
			successes++
		} else {
			failures++
		}
		result.Profiles = append(result.Profiles, pr)
	}

	if err := r.store.RecordScriptOutcome(scriptID, successes, failures); err != nil {
		log.Printf("[script] failed to record outcome for script %d: %v", scriptID, err)
	}

	return result, nil
}

func (r *Runner) runForProfile(profileID int64, steps []models.ScriptAction, actions []session.Action) models.ProfileResult {
	pr := models.ProfileResult{ProfileID: profileID, Success: true}

	for i, a := range actions {
		result, err := r.mgr.ExecuteOnProfile(profileID, a)
		if err != nil {
			pr.Success = false
			pr.Actions = append(pr.Actions, models.ActionOutcome{
				Action:  string(a.Type),
				Success: false,
				Error:   err.Error(),
			})
			if !steps[i].ContinueOnError {
				break
			}
			continue
		}

		pr.Actions = append(pr.Actions, models.ActionOutcome{
			Action:  string(a.Type),
			Success: true,
			Result:  result,
		})
	}

	return pr
}

// parseActions converts stored steps to typed actions up front so an
// invalid script fails before any page is touched.
func parseActions(steps []models.ScriptAction) ([]session.Action, error) {
	actions := make([]session.Action, 0, len(steps))
	for i, step := range steps {
		a, err := session.ParseAction(step.Type, step.Args)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}
