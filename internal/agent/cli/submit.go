package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/verdantlabs/gardensync/internal/agent/models"
	"github.com/verdantlabs/gardensync/internal/agent/queue"
	"github.com/verdantlabs/gardensync/internal/common"
)

// Submit interactively assembles a work submission and queues it. The job
// is accepted even while offline; the drainer picks it up once the relayer
// becomes reachable. On a duplicate, the user is shown the existing job ids
// and may confirm an intentional resubmission.
func (a *App) Submit(ctx context.Context) error {
	gardenID, err := getSimpleText(a.reader, "Garden id", os.Stdout)
	if err != nil {
		return err
	}
	actionID, err := getSimpleText(a.reader, "Action id", os.Stdout)
	if err != nil {
		return err
	}
	feedback, err := getSimpleText(a.reader, "Feedback (optional)", os.Stdout)
	if err != nil {
		return err
	}
	inputLines, err := GetInputLines(a.reader, os.Stdout)
	if err != nil {
		return err
	}
	inputs, err := models.InputsFromStrings(inputLines)
	if err != nil {
		return err
	}

	mediaLine, err := getSimpleText(a.reader, "Photo files (space-separated paths, empty for none)", os.Stdout)
	if err != nil {
		return err
	}
	uploads, err := readUploads(mediaLine)
	if err != nil {
		return err
	}

	priorityLine, err := getSimpleText(a.reader, "Priority (low/normal/high/urgent, default normal)", os.Stdout)
	if err != nil {
		return err
	}

	draft := &models.WorkDraft{
		GardenID: gardenID,
		ActionID: actionID,
		Feedback: feedback,
		Inputs:   inputs,
	}
	priority, err := parsePriority(priorityLine)
	if err != nil {
		return err
	}
	opts := queue.AddOptions{Priority: priority}

	id, err := a.manager.AddJob(ctx, draft, uploads, opts)
	if err != nil {
		var dup *common.DuplicateError
		if !errors.As(err, &dup) {
			return err
		}
		fmt.Printf("Looks already submitted (existing: %s)\n", strings.Join(dup.ExistingIDs, ", "))
		answer, err := getSimpleText(a.reader, "Submit anyway? (y/N)", os.Stdout)
		if err != nil {
			return err
		}
		if !strings.EqualFold(answer, "y") {
			fmt.Println("Cancelled")
			return nil
		}
		opts.AllowDuplicate = true
		if id, err = a.manager.AddJob(ctx, draft, uploads, opts); err != nil {
			return err
		}
	}

	fmt.Printf("Queued job %s\n", id)
	return nil
}

// Approve queues an approval (or rejection) for a remote work record.
func (a *App) Approve(ctx context.Context, workID string, approved bool, feedback string) error {
	draft := &models.ApprovalDraft{WorkID: workID, Approved: approved, Feedback: feedback}

	id, err := a.manager.AddJob(ctx, draft, nil, queue.AddOptions{Priority: models.PriorityHigh})
	if err != nil {
		return err
	}

	verb := "approval"
	if !approved {
		verb = "rejection"
	}
	fmt.Printf("Queued %s %s for work %s\n", verb, id, workID)
	return nil
}

func parsePriority(s string) (models.Priority, error) {
	switch models.Priority(strings.ToLower(s)) {
	case "":
		return models.PriorityNormal, nil
	case models.PriorityLow:
		return models.PriorityLow, nil
	case models.PriorityNormal:
		return models.PriorityNormal, nil
	case models.PriorityHigh:
		return models.PriorityHigh, nil
	case models.PriorityUrgent:
		return models.PriorityUrgent, nil
	default:
		return "", fmt.Errorf("%w: unknown priority %q", common.ErrValidation, s)
	}
}

func readUploads(line string) ([]models.MediaUpload, error) {
	if line == "" {
		return nil, nil
	}

	var uploads []models.MediaUpload
	for _, path := range strings.Fields(line) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
		}
		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		uploads = append(uploads, models.MediaUpload{
			Filename:    filepath.Base(path),
			ContentType: contentType,
			Data:        data,
		})
	}
	return uploads, nil
}
