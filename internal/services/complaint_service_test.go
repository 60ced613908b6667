package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/repositories"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/ident"
)

func newComplaintService(repo *MockComplaintRepository, notes *MockInternalNoteRepository, users *MockUserRepository, audit *MockAuditLogRepository, email EmailSender) *ComplaintService {
	if repo == nil {
		repo = &MockComplaintRepository{}
	}
	if notes == nil {
		notes = &MockInternalNoteRepository{}
	}
	if users == nil {
		users = &MockUserRepository{}
	}
	if audit == nil {
		audit = &MockAuditLogRepository{}
	}
	return NewComplaintService(repo, notes, users, testAuditService(audit), testHub(), email, testLogger())
}

func activeActionTaker(id string) *models.User {
	return &models.User{ID: id, Email: "taker@example.edu", Name: "Taker", Role: models.RoleActionTaker, Status: "active"}
}

func TestComplaintService_Submit(t *testing.T) {
	t.Run("creates complaint with generated ID and Submitted status", func(t *testing.T) {
		var created *models.Complaint
		repo := &MockComplaintRepository{
			CreateFunc: func(ctx context.Context, c *models.Complaint) (*models.Complaint, error) {
				created = c
				return c, nil
			},
		}
		svc := newComplaintService(repo, nil, nil, nil, nil)

		receipt, err := svc.Submit(context.Background(), SubmitComplaintInput{
			Severity:    "High",
			Category:    "Harassment",
			Description: "  something happened  ",
		})
		require.NoError(t, err)

		assert.True(t, ident.IsValidComplaintID(receipt.ID))
		assert.Equal(t, string(models.StatusSubmitted), receipt.Status)
		assert.False(t, receipt.PasscodeProtected)
		require.NotNil(t, created)
		assert.Equal(t, "something happened", created.Description)
		assert.Empty(t, created.PasscodeHash)
	})

	t.Run("passcode is stored as sha256 hash", func(t *testing.T) {
		var created *models.Complaint
		repo := &MockComplaintRepository{
			CreateFunc: func(ctx context.Context, c *models.Complaint) (*models.Complaint, error) {
				created = c
				return c, nil
			},
		}
		svc := newComplaintService(repo, nil, nil, nil, nil)

		receipt, err := svc.Submit(context.Background(), SubmitComplaintInput{
			Severity:    "Low",
			Category:    "Other",
			Description: "details",
			Passcode:    "4477",
		})
		require.NoError(t, err)

		assert.True(t, receipt.PasscodeProtected)
		assert.Len(t, created.PasscodeHash, 64)
		assert.NotContains(t, created.PasscodeHash, "4477")
	})

	t.Run("empty description rejected", func(t *testing.T) {
		svc := newComplaintService(nil, nil, nil, nil, nil)

		_, err := svc.Submit(context.Background(), SubmitComplaintInput{Description: "   "})
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("ID collision retried once with fresh ID", func(t *testing.T) {
		var ids []string
		repo := &MockComplaintRepository{
			CreateFunc: func(ctx context.Context, c *models.Complaint) (*models.Complaint, error) {
				ids = append(ids, c.ID)
				if len(ids) == 1 {
					return nil, models.ErrConflict
				}
				return c, nil
			},
		}
		svc := newComplaintService(repo, nil, nil, nil, nil)

		receipt, err := svc.Submit(context.Background(), SubmitComplaintInput{Description: "details"})
		require.NoError(t, err)

		require.Len(t, ids, 2)
		assert.NotEqual(t, ids[0], ids[1])
		assert.Equal(t, ids[1], receipt.ID)
	})

	t.Run("second collision gives up", func(t *testing.T) {
		repo := &MockComplaintRepository{
			CreateFunc: func(ctx context.Context, c *models.Complaint) (*models.Complaint, error) {
				return nil, models.ErrConflict
			},
		}
		svc := newComplaintService(repo, nil, nil, nil, nil)

		_, err := svc.Submit(context.Background(), SubmitComplaintInput{Description: "details"})
		assert.ErrorIs(t, err, models.ErrInternalServer)
	})

	t.Run("submission is audited without an actor", func(t *testing.T) {
		audit := &MockAuditLogRepository{}
		svc := newComplaintService(nil, nil, nil, audit, nil)

		_, err := svc.Submit(context.Background(), SubmitComplaintInput{Description: "details"})
		require.NoError(t, err)

		require.Len(t, audit.Entries, 1)
		assert.Equal(t, models.AuditEventTypeSubmission, audit.Entries[0].EventType)
		assert.Nil(t, audit.Entries[0].ActorID)
	})

	t.Run("snapshot published to hub", func(t *testing.T) {
		hub := testHub()
		svc := NewComplaintService(&MockComplaintRepository{}, &MockInternalNoteRepository{}, &MockUserRepository{},
			testAuditService(&MockAuditLogRepository{}), hub, nil, testLogger())

		ch, cancel := hub.Subscribe("*")
		defer cancel()

		receipt, err := svc.Submit(context.Background(), SubmitComplaintInput{Description: "details"})
		require.NoError(t, err)

		select {
		case snap := <-ch:
			assert.Equal(t, "created", snap.Event)
			assert.Equal(t, receipt.ID, snap.Complaint.ID)
		case <-time.After(time.Second):
			t.Fatal("expected snapshot on hub")
		}
	})
}

func TestComplaintService_MarkViewed(t *testing.T) {
	t.Run("transition is audited as a status change", func(t *testing.T) {
		repo := &MockComplaintRepository{
			MarkViewedFunc: func(ctx context.Context, id string) (bool, error) {
				return true, nil
			},
			GetByIDFunc: func(ctx context.Context, id string) (*models.Complaint, error) {
				return &models.Complaint{ID: id, Status: models.StatusViewed}, nil
			},
		}
		audit := &MockAuditLogRepository{}
		svc := newComplaintService(repo, nil, nil, audit, nil)

		err := svc.MarkViewed(context.Background(), "CMP-ABCDEFGH", "staff-1", models.RoleCommittee)
		require.NoError(t, err)

		require.Len(t, audit.Entries, 1)
		assert.Equal(t, models.AuditActionStatusChanged, audit.Entries[0].Action)
	})

	t.Run("no-op past Submitted leaves no audit entry", func(t *testing.T) {
		repo := &MockComplaintRepository{
			MarkViewedFunc: func(ctx context.Context, id string) (bool, error) {
				return false, nil
			},
			GetByIDFunc: func(ctx context.Context, id string) (*models.Complaint, error) {
				return &models.Complaint{ID: id, Status: models.StatusWorking}, nil
			},
		}
		audit := &MockAuditLogRepository{}
		svc := newComplaintService(repo, nil, nil, audit, nil)

		err := svc.MarkViewed(context.Background(), "CMP-ABCDEFGH", "staff-1", models.RoleCommittee)
		require.NoError(t, err)
		assert.Empty(t, audit.Entries)
	})
}

func TestComplaintService_Assign(t *testing.T) {
	assigned := func(id, staffID string) *models.Complaint {
		return &models.Complaint{ID: id, Status: models.StatusUnderReview, AssignedTo: &staffID}
	}

	t.Run("assigns to an active action taker and forces Under Review", func(t *testing.T) {
		users := &MockUserRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return activeActionTaker(id), nil
			},
		}
		repo := &MockComplaintRepository{
			AssignFunc: func(ctx context.Context, id, staffID string) (*models.Complaint, error) {
				return assigned(id, staffID), nil
			},
		}
		svc := newComplaintService(repo, nil, users, nil, nil)

		complaint, err := svc.Assign(context.Background(), "CMP-ABCDEFGH", "taker-1", "admin-1")
		require.NoError(t, err)

		assert.Equal(t, models.StatusUnderReview, complaint.Status)
		require.NotNil(t, complaint.AssignedTo)
		assert.Equal(t, "taker-1", *complaint.AssignedTo)
	})

	t.Run("unknown assignee is a bad request", func(t *testing.T) {
		svc := newComplaintService(nil, nil, &MockUserRepository{}, nil, nil)

		_, err := svc.Assign(context.Background(), "CMP-ABCDEFGH", "ghost", "admin-1")
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("assignee must hold the action_taker role", func(t *testing.T) {
		users := &MockUserRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return &models.User{ID: id, Role: models.RoleCommittee, Status: "active"}, nil
			},
		}
		svc := newComplaintService(nil, nil, users, nil, nil)

		_, err := svc.Assign(context.Background(), "CMP-ABCDEFGH", "committee-1", "admin-1")
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("assignment notification sent to assignee", func(t *testing.T) {
		users := &MockUserRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return activeActionTaker(id), nil
			},
		}
		repo := &MockComplaintRepository{
			AssignFunc: func(ctx context.Context, id, staffID string) (*models.Complaint, error) {
				return assigned(id, staffID), nil
			},
		}

		var sentTo string
		email := &MockEmailSender{
			SendAssignmentNotificationFunc: func(ctx context.Context, toEmail, toName string, complaint *models.Complaint) error {
				sentTo = toEmail
				return nil
			},
		}
		svc := newComplaintService(repo, nil, users, nil, email)

		_, err := svc.Assign(context.Background(), "CMP-ABCDEFGH", "taker-1", "admin-1")
		require.NoError(t, err)
		assert.Equal(t, "taker@example.edu", sentTo)
	})

	t.Run("notification failure does not fail the assignment", func(t *testing.T) {
		users := &MockUserRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return activeActionTaker(id), nil
			},
		}
		repo := &MockComplaintRepository{
			AssignFunc: func(ctx context.Context, id, staffID string) (*models.Complaint, error) {
				return assigned(id, staffID), nil
			},
		}
		email := &MockEmailSender{
			SendAssignmentNotificationFunc: func(ctx context.Context, toEmail, toName string, complaint *models.Complaint) error {
				return assert.AnError
			},
		}
		svc := newComplaintService(repo, nil, users, nil, email)

		_, err := svc.Assign(context.Background(), "CMP-ABCDEFGH", "taker-1", "admin-1")
		assert.NoError(t, err)
	})
}

func TestComplaintService_SetStatus(t *testing.T) {
	t.Run("overwrites status and records Status Changed", func(t *testing.T) {
		repo := &MockComplaintRepository{
			SetStatusFunc: func(ctx context.Context, id string, status models.ComplaintStatus) (*models.Complaint, error) {
				return &models.Complaint{ID: id, Status: status}, nil
			},
			GetByIDFunc: func(ctx context.Context, id string) (*models.Complaint, error) {
				return &models.Complaint{ID: id, Status: models.StatusWorking}, nil
			},
		}
		audit := &MockAuditLogRepository{}
		svc := newComplaintService(repo, nil, nil, audit, nil)

		complaint, err := svc.SetStatus(context.Background(), "CMP-ABCDEFGH", models.StatusResolved, "staff-1", models.RoleCommittee)
		require.NoError(t, err)

		assert.Equal(t, models.StatusResolved, complaint.Status)
		require.Len(t, audit.Entries, 1)
		entry := audit.Entries[0]
		assert.Equal(t, models.AuditActionStatusChanged, entry.Action)
		require.NotNil(t, entry.ActorID)
		assert.Equal(t, "staff-1", *entry.ActorID)
		assert.Equal(t, string(models.StatusResolved), entry.Metadata["status"])
	})

	t.Run("terminal states can be overwritten", func(t *testing.T) {
		// No transition gating: Resolved -> Working is allowed.
		var got models.ComplaintStatus
		repo := &MockComplaintRepository{
			SetStatusFunc: func(ctx context.Context, id string, status models.ComplaintStatus) (*models.Complaint, error) {
				got = status
				return &models.Complaint{ID: id, Status: status}, nil
			},
			GetByIDFunc: func(ctx context.Context, id string) (*models.Complaint, error) {
				return &models.Complaint{ID: id, Status: models.StatusResolved}, nil
			},
		}
		svc := newComplaintService(repo, nil, nil, nil, nil)

		_, err := svc.SetStatus(context.Background(), "CMP-ABCDEFGH", models.StatusWorking, "staff-1", models.RoleCommittee)
		require.NoError(t, err)
		assert.Equal(t, models.StatusWorking, got)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		svc := newComplaintService(nil, nil, nil, nil, nil)

		_, err := svc.SetStatus(context.Background(), "CMP-ABCDEFGH", "Escalated", "staff-1", models.RoleCommittee)
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})
}

func TestComplaintService_AppendPublicUpdate(t *testing.T) {
	t.Run("trims and stores the message", func(t *testing.T) {
		repo := &MockComplaintRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.Complaint, error) {
				return &models.Complaint{ID: id, Status: models.StatusWorking}, nil
			},
		}
		svc := newComplaintService(repo, nil, nil, nil, nil)

		update, err := svc.AppendPublicUpdate(context.Background(), "CMP-ABCDEFGH", "  we are on it  ", "staff-1", models.RoleCommittee)
		require.NoError(t, err)
		assert.Equal(t, "we are on it", update.Message)
	})

	t.Run("empty message rejected", func(t *testing.T) {
		svc := newComplaintService(nil, nil, nil, nil, nil)

		_, err := svc.AppendPublicUpdate(context.Background(), "CMP-ABCDEFGH", "   ", "staff-1", models.RoleCommittee)
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("unknown complaint is not found", func(t *testing.T) {
		svc := newComplaintService(&MockComplaintRepository{}, nil, nil, nil, nil)

		_, err := svc.AppendPublicUpdate(context.Background(), "CMP-ABCDEFGH", "hello", "staff-1", models.RoleCommittee)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestComplaintService_AppendInternalNote(t *testing.T) {
	t.Run("note stored with author, no hub publish", func(t *testing.T) {
		hub := testHub()
		repo := &MockComplaintRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.Complaint, error) {
				return &models.Complaint{ID: id}, nil
			},
		}
		svc := NewComplaintService(repo, &MockInternalNoteRepository{}, &MockUserRepository{},
			testAuditService(&MockAuditLogRepository{}), hub, nil, testLogger())

		ch, cancel := hub.Subscribe("*")
		defer cancel()

		note, err := svc.AppendInternalNote(context.Background(), "CMP-ABCDEFGH", "check HR records", "staff-1", models.RoleCommittee)
		require.NoError(t, err)
		assert.Equal(t, "staff-1", note.AuthorID)

		select {
		case <-ch:
			t.Fatal("internal notes must not be published to the stream")
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("empty note rejected", func(t *testing.T) {
		svc := newComplaintService(nil, nil, nil, nil, nil)

		_, err := svc.AppendInternalNote(context.Background(), "CMP-ABCDEFGH", " ", "staff-1", models.RoleCommittee)
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})
}

func TestComplaintService_MutationsRespectAssignment(t *testing.T) {
	assigneeID := "taker-a"
	repoFor := func(written *bool) *MockComplaintRepository {
		return &MockComplaintRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.Complaint, error) {
				return &models.Complaint{ID: id, Status: models.StatusUnderReview, AssignedTo: &assigneeID}, nil
			},
			SetStatusFunc: func(ctx context.Context, id string, status models.ComplaintStatus) (*models.Complaint, error) {
				*written = true
				return &models.Complaint{ID: id, Status: status}, nil
			},
			MarkViewedFunc: func(ctx context.Context, id string) (bool, error) {
				*written = true
				return true, nil
			},
			AppendPublicUpdateFunc: func(ctx context.Context, complaintID, message string) (*models.PublicUpdate, error) {
				*written = true
				return &models.PublicUpdate{ComplaintID: complaintID, Message: message}, nil
			},
		}
	}

	t.Run("action taker cannot mutate another taker's complaint", func(t *testing.T) {
		var written bool
		var noteWritten bool
		notes := &MockInternalNoteRepository{
			AppendFunc: func(ctx context.Context, complaintID, authorID, note string) (*models.InternalNote, error) {
				noteWritten = true
				return &models.InternalNote{ComplaintID: complaintID, AuthorID: authorID, Note: note}, nil
			},
		}
		svc := newComplaintService(repoFor(&written), notes, nil, nil, nil)

		_, err := svc.SetStatus(context.Background(), "CMP-ABCDEFGH", models.StatusResolved, "taker-b", models.RoleActionTaker)
		assert.ErrorIs(t, err, models.ErrForbidden)

		err = svc.MarkViewed(context.Background(), "CMP-ABCDEFGH", "taker-b", models.RoleActionTaker)
		assert.ErrorIs(t, err, models.ErrForbidden)

		_, err = svc.AppendPublicUpdate(context.Background(), "CMP-ABCDEFGH", "progress", "taker-b", models.RoleActionTaker)
		assert.ErrorIs(t, err, models.ErrForbidden)

		_, err = svc.AppendInternalNote(context.Background(), "CMP-ABCDEFGH", "a note", "taker-b", models.RoleActionTaker)
		assert.ErrorIs(t, err, models.ErrForbidden)

		assert.False(t, written, "no write may reach the store")
		assert.False(t, noteWritten, "no note may reach the store")
	})

	t.Run("action taker mutates their own assignment", func(t *testing.T) {
		var written bool
		svc := newComplaintService(repoFor(&written), nil, nil, nil, nil)

		_, err := svc.SetStatus(context.Background(), "CMP-ABCDEFGH", models.StatusResolved, assigneeID, models.RoleActionTaker)
		require.NoError(t, err)
		assert.True(t, written)
	})

	t.Run("committee mutates regardless of assignment", func(t *testing.T) {
		var written bool
		svc := newComplaintService(repoFor(&written), nil, nil, nil, nil)

		_, err := svc.SetStatus(context.Background(), "CMP-ABCDEFGH", models.StatusDismissed, "committee-1", models.RoleCommittee)
		require.NoError(t, err)
		assert.True(t, written)
	})
}

func TestComplaintService_Visibility(t *testing.T) {
	otherID := "taker-2"
	complaint := &models.Complaint{ID: "CMP-ABCDEFGH", AssignedTo: &otherID}

	t.Run("committee can read any complaint", func(t *testing.T) {
		repo := &MockComplaintRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.Complaint, error) {
				return complaint, nil
			},
		}
		svc := newComplaintService(repo, nil, nil, nil, nil)

		_, err := svc.Get(context.Background(), complaint.ID, "committee-1", models.RoleCommittee)
		assert.NoError(t, err)
	})

	t.Run("action taker cannot read another taker's complaint", func(t *testing.T) {
		repo := &MockComplaintRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.Complaint, error) {
				return complaint, nil
			},
		}
		svc := newComplaintService(repo, nil, nil, nil, nil)

		_, err := svc.Get(context.Background(), complaint.ID, "taker-1", models.RoleActionTaker)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("list pins action takers to their own assignments", func(t *testing.T) {
		var gotFilter repositories.ComplaintFilter
		repo := &MockComplaintRepository{
			ListFunc: func(ctx context.Context, filter repositories.ComplaintFilter) ([]*models.Complaint, error) {
				gotFilter = filter
				return []*models.Complaint{}, nil
			},
		}
		svc := newComplaintService(repo, nil, nil, nil, nil)

		_, err := svc.List(context.Background(), "taker-1", models.RoleActionTaker, repositories.ComplaintFilter{})
		require.NoError(t, err)
		require.NotNil(t, gotFilter.AssignedTo)
		assert.Equal(t, "taker-1", *gotFilter.AssignedTo)
	})

	t.Run("developer cannot read internal notes", func(t *testing.T) {
		svc := newComplaintService(nil, nil, nil, nil, nil)

		_, err := svc.ListNotes(context.Background(), "CMP-ABCDEFGH", "dev-1", models.RoleDeveloper)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}
