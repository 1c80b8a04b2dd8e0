package gamestate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownCommand is returned when a referee command value or name has no
// matching Command.
var ErrUnknownCommand = errors.New("unknown referee command")

// Command is a referee command. Values follow the game controller numbering
// so packets can carry either the number or the name.
type Command int

const (
	Halt Command = iota
	Stop
	NormalStart
	ForceStart
	PrepareKickoffYellow
	PrepareKickoffBlue
	PreparePenaltyYellow
	PreparePenaltyBlue
	DirectFreeYellow
	DirectFreeBlue
	IndirectFreeYellow
	IndirectFreeBlue
	TimeoutYellow
	TimeoutBlue
	GoalYellow
	GoalBlue
	BallPlacementYellow
	BallPlacementBlue
)

var commandNames = [...]string{
	Halt:                 "HALT",
	Stop:                 "STOP",
	NormalStart:          "NORMAL_START",
	ForceStart:           "FORCE_START",
	PrepareKickoffYellow: "PREPARE_KICKOFF_YELLOW",
	PrepareKickoffBlue:   "PREPARE_KICKOFF_BLUE",
	PreparePenaltyYellow: "PREPARE_PENALTY_YELLOW",
	PreparePenaltyBlue:   "PREPARE_PENALTY_BLUE",
	DirectFreeYellow:     "DIRECT_FREE_YELLOW",
	DirectFreeBlue:       "DIRECT_FREE_BLUE",
	IndirectFreeYellow:   "INDIRECT_FREE_YELLOW",
	IndirectFreeBlue:     "INDIRECT_FREE_BLUE",
	TimeoutYellow:        "TIMEOUT_YELLOW",
	TimeoutBlue:          "TIMEOUT_BLUE",
	GoalYellow:           "GOAL_YELLOW",
	GoalBlue:             "GOAL_BLUE",
	BallPlacementYellow:  "BALL_PLACEMENT_YELLOW",
	BallPlacementBlue:    "BALL_PLACEMENT_BLUE",
}

// Commands lists every command in numeric order.
func Commands() []Command {
	out := make([]Command, len(commandNames))
	for i := range commandNames {
		out[i] = Command(i)
	}
	return out
}

func (c Command) Valid() bool { return c >= 0 && int(c) < len(commandNames) }

func (c Command) String() string {
	if !c.Valid() {
		return "Command(" + strconv.Itoa(int(c)) + ")"
	}
	return commandNames[c]
}

// ParseCommand accepts a command name in any case.
func ParseCommand(s string) (Command, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range commandNames {
		if n == name {
			return Command(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

func (c Command) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCommand, int(c))
	}
	return []byte(strconv.Quote(c.String())), nil
}

// UnmarshalJSON accepts either the command name or its number.
func (c *Command) UnmarshalJSON(data []byte) error {
	s := string(data)
	if strings.HasPrefix(s, `"`) {
		name, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("decode command: %w", err)
		}
		cmd, err := ParseCommand(name)
		if err != nil {
			return err
		}
		*c = cmd
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("decode command: %w", err)
	}
	if !Command(n).Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownCommand, n)
	}
	*c = Command(n)
	return nil
}
