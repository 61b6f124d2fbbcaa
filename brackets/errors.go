package brackets

import "errors"

var (
	ErrInsufficientTeams = errors.New("at least two teams are required to generate a bracket")
	ErrCapacityExceeded  = errors.New("registered teams exceed tournament capacity")
	ErrDuplicateTeam     = errors.New("team is registered more than once")
	ErrInvalidTopology   = errors.New("matches do not form a single elimination bracket")
	ErrInvalidTransition = errors.New("bracket transition not allowed")
	ErrTeamNotInMatch    = errors.New("team does not play in this match")
)
