package gamestate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTeamUnresolved means the team colour or side could not be decided from
// the policy and the latest referee packet. Callers treat it as "unknown this
// tick", never as fatal.
var ErrTeamUnresolved = errors.New("team info unresolved")

type ColorPolicy string

const (
	ColorAutoref ColorPolicy = "autoref"
	ColorBlue    ColorPolicy = "blue"
	ColorYellow  ColorPolicy = "yellow"
)

func (c ColorPolicy) Valid() bool {
	switch c {
	case ColorAutoref, ColorBlue, ColorYellow:
		return true
	}
	return false
}

type SidePolicy string

const (
	SideAutoref  SidePolicy = "autoref"
	SidePositive SidePolicy = "positive"
	SideNegative SidePolicy = "negative"
)

func (s SidePolicy) Valid() bool {
	switch s {
	case SideAutoref, SidePositive, SideNegative:
		return true
	}
	return false
}

// TeamPolicy says how our colour and defended half are decided.
type TeamPolicy struct {
	TeamName string
	Color    ColorPolicy
	Side     SidePolicy
}

type RefereeTeam struct {
	Name       string `json:"name"`
	Score      int    `json:"score"`
	Goalkeeper int    `json:"goalkeeper"`
}

// Referee is the subset of a game controller packet the core consumes.
type Referee struct {
	Command                Command     `json:"command"`
	Blue                   RefereeTeam `json:"blue"`
	Yellow                 RefereeTeam `json:"yellow"`
	BlueTeamOnPositiveHalf *bool       `json:"blue_team_on_positive_half,omitempty"`
}

// TeamInfo is derived fresh every tick and never persisted.
type TeamInfo struct {
	IsBlue                bool `json:"is_blue"`
	Score                 int  `json:"score"`
	GoalieID              int  `json:"goalie_id"`
	DefendingPositiveSide bool `json:"defending_positive_side"`
}

// ResolveFriendlyIsBlue decides our colour. With the autoref policy the team
// name is matched case-insensitively against the referee's team names.
func ResolveFriendlyIsBlue(ref *Referee, p TeamPolicy) (bool, error) {
	switch p.Color {
	case ColorBlue:
		return true, nil
	case ColorYellow:
		return false, nil
	case ColorAutoref:
		if ref == nil {
			return false, fmt.Errorf("%w: no referee packet yet", ErrTeamUnresolved)
		}
		switch {
		case strings.EqualFold(ref.Blue.Name, p.TeamName):
			return true, nil
		case strings.EqualFold(ref.Yellow.Name, p.TeamName):
			return false, nil
		}
		return false, fmt.Errorf("%w: team %q not in referee names %q/%q",
			ErrTeamUnresolved, p.TeamName, ref.Blue.Name, ref.Yellow.Name)
	}
	return false, fmt.Errorf("%w: invalid colour policy %q", ErrTeamUnresolved, p.Color)
}

// ResolveDefendingPositiveSide decides whether our team defends the positive x half.
func ResolveDefendingPositiveSide(ref *Referee, p TeamPolicy, friendlyIsBlue bool) (bool, error) {
	switch p.Side {
	case SidePositive:
		return true, nil
	case SideNegative:
		return false, nil
	case SideAutoref:
		if ref == nil {
			return false, fmt.Errorf("%w: no referee packet yet", ErrTeamUnresolved)
		}
		if ref.BlueTeamOnPositiveHalf == nil {
			return false, fmt.Errorf("%w: referee has not assigned sides", ErrTeamUnresolved)
		}
		return *ref.BlueTeamOnPositiveHalf == friendlyIsBlue, nil
	}
	return false, fmt.Errorf("%w: invalid side policy %q", ErrTeamUnresolved, p.Side)
}

// ResolveTeamInfo builds the TeamInfo for our team (friendly=true) or the
// enemy. Score and goalie come from the referee packet, so a missing packet
// leaves the info unresolved even under fixed colour and side policies.
func ResolveTeamInfo(ref *Referee, p TeamPolicy, friendly bool) (TeamInfo, error) {
	friendlyIsBlue, err := ResolveFriendlyIsBlue(ref, p)
	if err != nil {
		return TeamInfo{}, err
	}
	friendlyPositive, err := ResolveDefendingPositiveSide(ref, p, friendlyIsBlue)
	if err != nil {
		return TeamInfo{}, err
	}
	if ref == nil {
		return TeamInfo{}, fmt.Errorf("%w: no referee packet yet", ErrTeamUnresolved)
	}

	isBlue := friendlyIsBlue == friendly
	team := ref.Yellow
	if isBlue {
		team = ref.Blue
	}
	return TeamInfo{
		IsBlue:                isBlue,
		Score:                 team.Score,
		GoalieID:              team.Goalkeeper,
		DefendingPositiveSide: friendlyPositive == friendly,
	}, nil
}
