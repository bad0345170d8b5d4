package race

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/racekeeper/internal/domain/activity"
	"github.com/rpggio/racekeeper/internal/domain/course"
	"github.com/rpggio/racekeeper/internal/domain/definition"
	"github.com/rpggio/racekeeper/internal/notify"
	"github.com/rpggio/racekeeper/internal/player"
	"github.com/rpggio/racekeeper/internal/timer"
)

type note struct {
	playerID string
	text     string
}

// outbox collects side effects produced under the lock. They are delivered
// once the lock is released.
type outbox struct {
	direct     []note
	broadcasts []string
	recipients []string
	entries    []*activity.ActivityEntry
	winnerID   string
}

func (o *outbox) tell(playerID, text string) {
	o.direct = append(o.direct, note{playerID: playerID, text: text})
}

func (o *outbox) announce(text string) {
	o.broadcasts = append(o.broadcasts, text)
}

func (o *outbox) record(sess *session, typ activity.ActivityType, playerID, summary string) {
	sessionID := sess.id
	entry := &activity.ActivityEntry{
		SessionID:    &sessionID,
		RaceName:     sess.def.Name,
		ActivityType: typ,
		Summary:      summary,
	}
	if playerID != "" {
		id := playerID
		entry.PlayerID = &id
	}
	o.entries = append(o.entries, entry)
}

// Service owns the single race slot.
type Service struct {
	mu       sync.Mutex
	session  *session
	defs     DefinitionSource
	wins     WinRecorder
	activity ActivityLogger
	gateway  notify.Gateway
	players  player.Directory
	timers   timer.Scheduler
	timing   Timing
	logger   *slog.Logger
	now      func() time.Time
}

// Deps are the collaborators of a race Service.
type Deps struct {
	Definitions DefinitionSource
	Wins        WinRecorder
	Activity    ActivityLogger
	Gateway     notify.Gateway
	Players     player.Directory
	Timers      timer.Scheduler
	Logger      *slog.Logger
}

// NewService creates an idle race service.
func NewService(deps Deps, timing Timing) *Service {
	s := &Service{
		defs:     deps.Definitions,
		wins:     deps.Wins,
		activity: deps.Activity,
		gateway:  deps.Gateway,
		players:  deps.Players,
		timers:   deps.Timers,
		timing:   timing,
		logger:   deps.Logger,
		now:      time.Now,
	}
	if s.timers == nil {
		s.timers = timer.Wall{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Start opens a race for joining using a snapshot of the named definition.
func (s *Service) Start(ctx context.Context, starter player.Player, name string) (*Status, error) {
	s.mu.Lock()
	if s.session != nil {
		s.mu.Unlock()
		return nil, ErrAlreadyActive
	}

	def, err := s.defs.Get(name)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, definition.ErrNotFound) {
			return nil, ErrDefinitionNotFound
		}
		return nil, fmt.Errorf("loading definition: %w", err)
	}

	sess := &session{
		id:    uuid.NewString(),
		def:   def,
		state: StateJoining,
	}
	s.session = sess

	ob := &outbox{}
	ob.announce(startAnnouncement(def))
	ob.record(sess, activity.TypeRaceStarted, starter.ID, fmt.Sprintf("race %q opened for joining", def.Name))
	status := s.statusLocked()
	s.mu.Unlock()

	s.logger.Info("race started", "session_id", sess.id, "race", def.Name)
	s.deliver(ctx, ob)
	return status, nil
}

// Join adds p to the roster of the race that is open for joining.
func (s *Service) Join(ctx context.Context, p player.Player) (*JoinResult, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}
	if p.Name == "" {
		p.Name = p.ID
	}

	s.mu.Lock()
	sess := s.session
	switch {
	case sess == nil:
		s.mu.Unlock()
		return nil, ErrNoActiveRace
	case sess.state == StateActive:
		s.mu.Unlock()
		return nil, ErrRaceInProgress
	case sess.find(p.ID) != nil:
		s.mu.Unlock()
		return nil, ErrAlreadyJoined
	case len(sess.participants) >= sess.def.MaxPlayers:
		s.mu.Unlock()
		return nil, ErrFull
	}

	sess.participants = append(sess.participants, &Participant{
		PlayerID:  p.ID,
		Name:      p.Name,
		JoinOrder: len(sess.participants) + 1,
		JoinedAt:  s.now(),
	})
	count := len(sess.participants)
	def := sess.def

	ob := &outbox{}
	ob.record(sess, activity.TypePlayerJoined, p.ID, fmt.Sprintf("%s joined (%d/%d)", p.Name, count, def.MaxPlayers))

	switch {
	case count >= def.MinPlayers && sess.countdownTimer == nil:
		timer.Stop(sess.waitTimer)
		sess.waitTimer = nil
		id := sess.id
		sess.countdownTimer = s.timers.ScheduleOnce(s.timing.AutoStart, func() { s.countdownFired(id) })
		ob.announce(fmt.Sprintf("Minimum of %d players reached! Race '%s' starts in %s.",
			def.MinPlayers, def.Name, formatSeconds(s.timing.AutoStart)))
		ob.record(sess, activity.TypeCountdownStarted, "", fmt.Sprintf("countdown of %s armed", formatSeconds(s.timing.AutoStart)))
	case count == 1 && sess.waitTimer == nil && sess.countdownTimer == nil:
		id := sess.id
		sess.waitTimer = s.timers.ScheduleOnce(s.timing.MinWait, func() { s.waitExpired(id) })
		ob.announce(fmt.Sprintf("Waiting for at least %d players to join race '%s'. The race is cancelled if not enough players join within %s.",
			def.MinPlayers, def.Name, formatSeconds(s.timing.MinWait)))
	}

	result := &JoinResult{
		SessionID:      sess.id,
		Players:        count,
		MinPlayers:     def.MinPlayers,
		MaxPlayers:     def.MaxPlayers,
		CountdownArmed: sess.countdownTimer != nil,
	}
	ob.recipients = sess.playerIDs()
	s.mu.Unlock()

	s.logger.Info("player joined race", "session_id", result.SessionID, "player_id", p.ID, "players", count)
	s.deliver(ctx, ob)
	return result, nil
}

// ReportPosition advances a participant through the course. Reaching the
// finish completes a lap; completing the last lap wins the race.
func (s *Service) ReportPosition(ctx context.Context, playerID string, pos course.Vec3) (*ProgressResult, error) {
	s.mu.Lock()
	sess := s.session
	switch {
	case sess == nil:
		s.mu.Unlock()
		return nil, ErrNoActiveRace
	case sess.state != StateActive:
		s.mu.Unlock()
		return nil, ErrRaceNotStarted
	}
	part := sess.find(playerID)
	if part == nil {
		s.mu.Unlock()
		return nil, ErrNotParticipant
	}

	def := sess.def
	progress := course.Progress{NextCheckpoint: part.NextCheckpoint}
	moved, lapDone := def.Course.Advance(&progress, pos)
	part.NextCheckpoint = progress.NextCheckpoint

	ob := &outbox{}
	result := &ProgressResult{Laps: def.Laps, Advanced: moved}
	switch {
	case lapDone:
		part.LapsCompleted++
		ob.record(sess, activity.TypeLapCompleted, playerID, fmt.Sprintf("%s completed lap %d/%d", part.Name, part.LapsCompleted, def.Laps))
		if part.LapsCompleted >= def.Laps {
			result.Finished = s.finishLocked(ob, sess, playerID, fmt.Sprintf("%s crossed the finish line!", part.Name))
		} else {
			ob.tell(playerID, fmt.Sprintf("Lap %d/%d completed.", part.LapsCompleted, def.Laps))
		}
	case moved:
		ob.tell(playerID, fmt.Sprintf("Checkpoint %d/%d passed.", part.NextCheckpoint, len(def.Course.Checkpoints)))
	}
	result.LapsCompleted = part.LapsCompleted
	result.NextCheckpoint = part.NextCheckpoint
	s.mu.Unlock()

	if err := s.deliver(ctx, ob); err != nil {
		return result, err
	}
	return result, nil
}

// Positions ranks the participants of the running race.
func (s *Service) Positions() ([]Standing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session
	if sess == nil {
		return nil, ErrNoActiveRace
	}
	if sess.state != StateActive {
		return nil, ErrRaceNotStarted
	}
	return sess.standings(), nil
}

// Cancel aborts the race from any non-idle state.
func (s *Service) Cancel(ctx context.Context) error {
	s.mu.Lock()
	sess := s.session
	if sess == nil {
		s.mu.Unlock()
		return ErrNoActiveRace
	}
	ob := &outbox{}
	s.cancelLocked(ob, sess, fmt.Sprintf("Race '%s' has been cancelled.", sess.def.Name))
	s.mu.Unlock()

	s.logger.Info("race cancelled", "session_id", sess.id)
	s.deliver(ctx, ob)
	return nil
}

// End finishes the running race. An empty winnerID ends it without a winner.
func (s *Service) End(ctx context.Context, winnerID string) (*Result, error) {
	s.mu.Lock()
	sess := s.session
	switch {
	case sess == nil:
		s.mu.Unlock()
		return nil, ErrNoActiveRace
	case sess.state != StateActive:
		s.mu.Unlock()
		return nil, ErrRaceNotStarted
	case winnerID != "" && sess.find(winnerID) == nil:
		s.mu.Unlock()
		return nil, ErrNotParticipant
	}

	ob := &outbox{}
	result := s.finishLocked(ob, sess, winnerID, "")
	s.mu.Unlock()

	if err := s.deliver(ctx, ob); err != nil {
		return result, err
	}
	return result, nil
}

// Status returns a snapshot of the race slot.
func (s *Service) Status() *Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Service) statusLocked() *Status {
	sess := s.session
	if sess == nil {
		return &Status{State: StateIdle, Participants: []Participant{}}
	}

	parts := make([]Participant, len(sess.participants))
	for i, p := range sess.participants {
		parts[i] = *p
	}
	status := &Status{
		State:          sess.state,
		SessionID:      sess.id,
		Definition:     sess.def.Clone(),
		Participants:   parts,
		Started:        sess.state == StateActive,
		WaitArmed:      sess.waitTimer != nil,
		CountdownArmed: sess.countdownTimer != nil,
	}
	if !sess.startedAt.IsZero() {
		startedAt := sess.startedAt
		status.StartedAt = &startedAt
	}
	return status
}

func (s *Service) waitExpired(sessionID string) {
	s.mu.Lock()
	sess := s.session
	if sess == nil || sess.id != sessionID || sess.state != StateJoining ||
		sess.countdownTimer != nil || len(sess.participants) >= sess.def.MinPlayers {
		s.mu.Unlock()
		return
	}
	sess.waitTimer = nil

	ob := &outbox{}
	s.cancelLocked(ob, sess, fmt.Sprintf("Not enough players joined race '%s'. Minimum of %d not reached, the race is cancelled.",
		sess.def.Name, sess.def.MinPlayers))
	s.mu.Unlock()

	s.logger.Info("race cancelled, minimum not reached", "session_id", sessionID)
	s.deliver(context.Background(), ob)
}

func (s *Service) countdownFired(sessionID string) {
	s.mu.Lock()
	sess := s.session
	if sess == nil || sess.id != sessionID || sess.state != StateJoining {
		s.mu.Unlock()
		return
	}

	sess.countdownTimer = nil
	sess.state = StateActive
	sess.startedAt = s.now()
	if secs := sess.def.TimeLimitSeconds; secs > 0 {
		sess.limitTimer = s.timers.ScheduleOnce(time.Duration(secs)*time.Second, func() { s.timeLimitReached(sessionID) })
	}

	ob := &outbox{}
	ob.recipients = sess.playerIDs()
	ob.announce(fmt.Sprintf("Race '%s' is starting now! %d laps.", sess.def.Name, sess.def.Laps))
	ob.record(sess, activity.TypeRaceActive, "", fmt.Sprintf("race started with %d players", len(sess.participants)))
	s.mu.Unlock()

	s.logger.Info("race active", "session_id", sessionID)
	s.deliver(context.Background(), ob)
}

func (s *Service) timeLimitReached(sessionID string) {
	s.mu.Lock()
	sess := s.session
	if sess == nil || sess.id != sessionID || sess.state != StateActive {
		s.mu.Unlock()
		return
	}
	sess.limitTimer = nil

	winnerID := ""
	if standings := sess.standings(); len(standings) > 0 && standings[0].LapsCompleted > 0 {
		winnerID = standings[0].PlayerID
	}
	ob := &outbox{}
	s.finishLocked(ob, sess, winnerID, "Time is up!")
	s.mu.Unlock()

	if err := s.deliver(context.Background(), ob); err != nil {
		s.logger.Error("recording win after time limit", "session_id", sessionID, "error", err)
	}
}

// cancelLocked tears down sess. Caller holds s.mu.
func (s *Service) cancelLocked(ob *outbox, sess *session, reason string) {
	sess.stopTimers()
	ob.recipients = sess.playerIDs()
	ob.announce(reason)
	ob.record(sess, activity.TypeRaceCancelled, "", reason)
	s.session = nil
}

// finishLocked tears down sess with an optional winner. Caller holds s.mu.
func (s *Service) finishLocked(ob *outbox, sess *session, winnerID, lead string) *Result {
	sess.stopTimers()
	result := &Result{
		SessionID: sess.id,
		RaceName:  sess.def.Name,
		WinnerID:  winnerID,
		Standings: sess.standings(),
	}

	var b strings.Builder
	if lead != "" {
		b.WriteString(lead)
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "Race '%s' has finished!", sess.def.Name)
	if winner := sess.find(winnerID); winner != nil {
		fmt.Fprintf(&b, " The winner is %s.", winner.Name)
	} else {
		b.WriteString(" There is no winner.")
	}

	ob.recipients = sess.playerIDs()
	ob.announce(b.String())
	ob.record(sess, activity.TypeRaceFinished, winnerID, b.String())
	ob.winnerID = winnerID
	s.session = nil
	return result
}

// deliver flushes an outbox. Only a failure to record the win is returned.
func (s *Service) deliver(ctx context.Context, ob *outbox) error {
	if s.gateway != nil {
		for _, n := range ob.direct {
			s.gateway.Notify(n.playerID, n.text)
		}
		if len(ob.broadcasts) > 0 {
			recipients := s.broadcastRecipients(ob.recipients)
			for _, text := range ob.broadcasts {
				s.gateway.NotifyAll(recipients, text)
			}
		}
	}

	if s.activity != nil {
		for _, entry := range ob.entries {
			if err := s.activity.LogActivity(ctx, entry); err != nil {
				s.logger.Warn("failed to log race activity", "type", entry.ActivityType, "error", err)
			}
		}
	}

	if ob.winnerID == "" || s.wins == nil {
		return nil
	}
	total, err := s.wins.RecordWin(ctx, ob.winnerID)
	if err != nil {
		return fmt.Errorf("recording win: %w", err)
	}
	s.logger.Info("win recorded", "player_id", ob.winnerID, "wins", total)
	return nil
}

// broadcastRecipients is every connected player plus the roster.
func (s *Service) broadcastRecipients(roster []string) []string {
	seen := make(map[string]bool)
	var out []string
	if s.players != nil {
		for _, p := range s.players.Connected() {
			if !seen[p.ID] {
				seen[p.ID] = true
				out = append(out, p.ID)
			}
		}
	}
	for _, id := range roster {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func startAnnouncement(def *definition.RaceDefinition) string {
	limit := "none"
	if def.TimeLimitSeconds > 0 {
		limit = fmt.Sprintf("%ds", def.TimeLimitSeconds)
	}
	return fmt.Sprintf("Race '%s' is open! Laps: %d, players: %d-%d, time limit: %s. Use '/race join' to enter.",
		def.Name, def.Laps, def.MinPlayers, def.MaxPlayers, limit)
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%d seconds", int(d/time.Second))
}
