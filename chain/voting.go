// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package chain

import (
	"fmt"
)

type VotingPeriodKind byte

const (
	VotingPeriodInvalid VotingPeriodKind = iota
	VotingPeriodProposal
	VotingPeriodTestingVote
	VotingPeriodTesting
	VotingPeriodPromotionVote
)

func ParseVotingPeriod(s string) VotingPeriodKind {
	switch s {
	case "proposal":
		return VotingPeriodProposal
	case "testing_vote":
		return VotingPeriodTestingVote
	case "testing":
		return VotingPeriodTesting
	case "promotion_vote":
		return VotingPeriodPromotionVote
	default:
		return VotingPeriodInvalid
	}
}

func (v VotingPeriodKind) IsValid() bool {
	return v != VotingPeriodInvalid
}

func (v VotingPeriodKind) String() string {
	switch v {
	case VotingPeriodProposal:
		return "proposal"
	case VotingPeriodTestingVote:
		return "testing_vote"
	case VotingPeriodTesting:
		return "testing"
	case VotingPeriodPromotionVote:
		return "promotion_vote"
	default:
		return ""
	}
}

func (v VotingPeriodKind) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *VotingPeriodKind) UnmarshalText(data []byte) error {
	*v = ParseVotingPeriod(string(data))
	return nil
}

type BallotVote byte

const (
	BallotVoteInvalid BallotVote = iota
	BallotVoteYay
	BallotVoteNay
	BallotVotePass
)

func ParseBallotVote(s string) (BallotVote, error) {
	switch s {
	case "yay":
		return BallotVoteYay, nil
	case "nay":
		return BallotVoteNay, nil
	case "pass":
		return BallotVotePass, nil
	default:
		return BallotVoteInvalid, fmt.Errorf("invalid ballot vote %q", s)
	}
}

func (b BallotVote) String() string {
	switch b {
	case BallotVoteYay:
		return "yay"
	case BallotVoteNay:
		return "nay"
	case BallotVotePass:
		return "pass"
	default:
		return ""
	}
}

func (b BallotVote) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *BallotVote) UnmarshalText(data []byte) error {
	vote, err := ParseBallotVote(string(data))
	if err != nil {
		return err
	}
	*b = vote
	return nil
}

type RightType byte

const (
	RightTypeBaking RightType = iota
	RightTypeEndorsing
)

func (r RightType) String() string {
	switch r {
	case RightTypeBaking:
		return "baking"
	case RightTypeEndorsing:
		return "endorsing"
	default:
		return ""
	}
}
