package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	repojobs "github.com/yungbote/notescribe-backend/internal/data/repos/jobs"
	"github.com/yungbote/notescribe-backend/internal/domain"
	"github.com/yungbote/notescribe-backend/internal/platform/dbctx"
)

// Context is the execution handle for a single claimed job run. It wraps
// the claimed job_run row and the only sanctioned ways to report progress
// or terminate execution. Pipeline handlers never touch job_run directly.
type Context struct {
	Ctx     context.Context
	DB      *gorm.DB
	Job     *domain.JobRun
	Repo    repojobs.JobRunRepo
	payload map[string]any
}

// NewContext eagerly decodes the job payload so handlers can read inputs
// via PayloadInt64/PayloadString. A malformed payload leaves the map
// empty; handlers validate required fields themselves.
func NewContext(ctx context.Context, db *gorm.DB, job *domain.JobRun, repo repojobs.JobRunRepo) *Context {
	c := &Context{
		Ctx:  ctx,
		DB:   db,
		Job:  job,
		Repo: repo,
	}
	_ = c.decodePayload()
	return c
}

func (c *Context) decodePayload() error {
	if c.Job == nil {
		return nil
	}
	if len(c.Job.Payload) == 0 {
		c.payload = map[string]any{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Payload, &m); err != nil {
		c.payload = map[string]any{}
		return err
	}
	c.payload = m
	return nil
}

func (c *Context) Payload() map[string]any {
	if c.payload == nil {
		c.payload = map[string]any{}
	}
	return c.payload
}

// PayloadInt64 reads a payload field as an integer id. JSON numbers decode
// as float64; string forms are accepted too so requeues survive lossy
// round-trips.
func (c *Context) PayloadInt64(key string) (int64, bool) {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func (c *Context) PayloadString(key string) (string, bool) {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprint(v), true
	}
	return s, true
}

// Progress records a non-terminal stage update plus a heartbeat so the
// claim query keeps treating this run as alive.
func (c *Context) Progress(stage string) {
	if c == nil || c.Repo == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	now := time.Now()
	_ = c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.Ctx}, c.Job.ID, map[string]interface{}{
		"stage":        stage,
		"heartbeat_at": &now,
		"updated_at":   now,
	}, domain.JobStatusSucceeded)
	c.Job.Stage = stage
	c.Job.HeartbeatAt = &now
}

// Fail marks the run terminally failed for this attempt and clears the
// lock so the claim query can retry it once the backoff elapses.
func (c *Context) Fail(stage string, err error) {
	if c == nil || c.Repo == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	now := time.Now()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	_ = c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.Ctx}, c.Job.ID, map[string]interface{}{
		"status":        domain.JobStatusFailed,
		"stage":         stage,
		"error":         msg,
		"last_error_at": &now,
		"locked_at":     nil,
		"updated_at":    now,
	}, domain.JobStatusSucceeded)
	c.Job.Status = domain.JobStatusFailed
	c.Job.Stage = stage
	c.Job.Error = msg
	c.Job.LastErrorAt = &now
	c.Job.LockedAt = nil
}

// Succeed marks the run terminally succeeded and stores a result payload.
func (c *Context) Succeed(finalStage string, result any) {
	if c == nil || c.Repo == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	now := time.Now()
	var res datatypes.JSON
	if result != nil {
		b, _ := json.Marshal(result)
		res = datatypes.JSON(b)
	}
	_ = c.Repo.UpdateFields(dbctx.Context{Ctx: c.Ctx}, c.Job.ID, map[string]interface{}{
		"status":       domain.JobStatusSucceeded,
		"stage":        finalStage,
		"error":        "",
		"result":       res,
		"locked_at":    nil,
		"heartbeat_at": &now,
		"updated_at":   now,
	})
	c.Job.Status = domain.JobStatusSucceeded
	c.Job.Stage = finalStage
	c.Job.Error = ""
	c.Job.Result = res
	c.Job.LockedAt = nil
	c.Job.HeartbeatAt = &now
}
