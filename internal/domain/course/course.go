package course

import "math"

// ValidateRadius checks that r is usable as a checkpoint radius.
func ValidateRadius(r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return ErrInvalidRadius
	}
	return nil
}

// SetFinish places (or replaces) the finish point.
func (c *Course) SetFinish(pos Vec3, radius float64) error {
	if err := ValidateRadius(radius); err != nil {
		return err
	}
	c.Finish = &Checkpoint{Position: pos, Radius: radius}
	return nil
}

// AddCheckpoint appends a checkpoint and returns its index.
func (c *Course) AddCheckpoint(pos Vec3, radius float64) (int, error) {
	if err := ValidateRadius(radius); err != nil {
		return -1, err
	}
	c.Checkpoints = append(c.Checkpoints, Checkpoint{Position: pos, Radius: radius})
	return len(c.Checkpoints) - 1, nil
}

// EditFinishRadius changes the radius of an existing finish point.
func (c *Course) EditFinishRadius(radius float64) error {
	if err := ValidateRadius(radius); err != nil {
		return err
	}
	if c.Finish == nil {
		return ErrFinishNotSet
	}
	c.Finish.Radius = radius
	return nil
}

// EditCheckpointRadius changes the radius of the checkpoint at index.
func (c *Course) EditCheckpointRadius(index int, radius float64) error {
	if err := ValidateRadius(radius); err != nil {
		return err
	}
	if index < 0 || index >= len(c.Checkpoints) {
		return ErrIndexOutOfRange
	}
	c.Checkpoints[index].Radius = radius
	return nil
}

// Clone returns a deep copy.
func (c Course) Clone() Course {
	out := Course{Checkpoints: make([]Checkpoint, len(c.Checkpoints))}
	copy(out.Checkpoints, c.Checkpoints)
	if c.Finish != nil {
		finish := *c.Finish
		out.Finish = &finish
	}
	return out
}

// Next returns the checkpoint a racer must reach next. The finish follows the
// last ordered checkpoint. ok is false when the course has no finish.
func (c Course) Next(p Progress) (target Checkpoint, isFinish bool, ok bool) {
	if p.NextCheckpoint < len(c.Checkpoints) {
		return c.Checkpoints[p.NextCheckpoint], false, true
	}
	if c.Finish == nil {
		return Checkpoint{}, false, false
	}
	return *c.Finish, true, true
}

// Advance moves p forward if pos reaches the next target. It reports whether a
// lap was completed by crossing the finish.
func (c Course) Advance(p *Progress, pos Vec3) (moved, lapDone bool) {
	target, isFinish, ok := c.Next(*p)
	if !ok || !target.Contains(pos) {
		return false, false
	}
	if isFinish {
		p.NextCheckpoint = 0
		return true, true
	}
	p.NextCheckpoint++
	return true, false
}
