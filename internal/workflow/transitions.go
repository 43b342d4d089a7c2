package workflow

import (
	"fmt"

	"github.com/noah-isme/retention-api/internal/scheduling"
)

// SchedulingRule states which scheduling fields a transition accepts.
type SchedulingRule int

const (
	// ScheduleNone accepts no scheduling fields.
	ScheduleNone SchedulingRule = iota
	// ScheduleDateOnly accepts an optional follow-up date.
	ScheduleDateOnly
	// ScheduleSession accepts an optional date, time and assigned professional.
	ScheduleSession
)

// Transition is the effect of completing an activity of type From with a given decision.
type Transition struct {
	From            ActivityType
	Decision        Decision
	Next            ActivityType
	RetentionKind   RetentionKind
	Scheduling      SchedulingRule
	Variant         scheduling.Variant
	RequiresEndDate bool
}

// Terminal reports whether the transition closes the alert.
func (t Transition) Terminal() bool { return t.Next.IsTerminal() }

// AlertStatus is the alert status produced by the transition.
func (t Transition) AlertStatus() AlertStatus {
	switch t.Next {
	case TypeRetention:
		return AlertRetained
	case TypeChurn:
		return AlertChurned
	default:
		return AlertPending
	}
}

// Rule describes what completing an activity type requires.
type Rule struct {
	NotesRequired    bool
	RequiresDocument bool
	Transitions      []Transition
}

// Leaf reports whether completing the activity never produces a successor.
func (r Rule) Leaf() bool { return len(r.Transitions) == 0 }

var rules = map[ActivityType]Rule{
	TypeIntake: {
		NotesRequired: true,
		Transitions: []Transition{
			{From: TypeIntake, Decision: DecisionFinancialSession, Next: TypeFinancialSession, Scheduling: ScheduleSession, Variant: scheduling.VariantSession},
			{From: TypeIntake, Decision: DecisionPedagogicalSession, Next: TypePedagogicalSession, Scheduling: ScheduleSession, Variant: scheduling.VariantSession},
			{From: TypeIntake, Decision: DecisionIntake, Next: TypeIntake, Scheduling: ScheduleDateOnly},
			{From: TypeIntake, Decision: DecisionRetention, Next: TypeRetention},
		},
	},
	TypeFinancialSession: {
		NotesRequired: true,
		Transitions: []Transition{
			{From: TypeFinancialSession, Decision: DecisionPermanentAdjustment, Next: TypeRetention, RetentionKind: RetentionPermanent},
			{From: TypeFinancialSession, Decision: DecisionTemporaryAdjustment, Next: TypeRetention, RetentionKind: RetentionTemporary, RequiresEndDate: true},
			{From: TypeFinancialSession, Decision: DecisionChurn, Next: TypeChurn},
		},
	},
	TypePedagogicalSession: {
		NotesRequired: true,
		Transitions: []Transition{
			{From: TypePedagogicalSession, Decision: DecisionRetention, Next: TypeRetention},
			{From: TypePedagogicalSession, Decision: DecisionFinancialSession, Next: TypeFinancialSession, Scheduling: ScheduleSession, Variant: scheduling.VariantFollowUp},
		},
	},
	TypeRetention: {},
	TypeChurn:     {},
	TypeContractCancelation: {
		RequiresDocument: true,
	},
	TypeMaterialReturn: {},
	TypeSystemRemoval:  {},
	TypeRecordUpdate:   {},
}

// RuleFor returns the completion rule of an activity type.
func RuleFor(activityType ActivityType) (Rule, bool) {
	rule, ok := rules[activityType]
	return rule, ok
}

// LegalDecisions lists the decisions accepted when completing activityType, in table order.
func LegalDecisions(activityType ActivityType) []Decision {
	rule, ok := rules[activityType]
	if !ok {
		return nil
	}
	decisions := make([]Decision, 0, len(rule.Transitions))
	for _, transition := range rule.Transitions {
		decisions = append(decisions, transition.Decision)
	}
	return decisions
}

// Resolve finds the transition for completing current with decision.
func Resolve(current ActivityType, decision Decision) (Transition, error) {
	rule, ok := rules[current]
	if !ok {
		return Transition{}, invalid("activity_type", fmt.Sprintf("unknown activity type %q", current))
	}
	if current.IsTerminal() {
		return Transition{}, invalid("activity_type", "terminal activities do not advance")
	}
	if decision == "" {
		return Transition{}, invalid("decision", "required")
	}
	for _, transition := range rule.Transitions {
		if transition.Decision == decision {
			return transition, nil
		}
	}
	return Transition{}, invalid("decision", fmt.Sprintf("%q is not allowed after %s", decision, current))
}
