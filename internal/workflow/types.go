// Package workflow holds the retention workflow rules: which activity may follow which,
// what each completion must carry, and the form state a driver walks through to collect it.
package workflow

import (
	"fmt"
	"strings"
)

// ActivityType tags one node of an alert's activity chain or an administrative task.
type ActivityType string

const (
	TypeIntake              ActivityType = "acolhimento"
	TypeFinancialSession    ActivityType = "atendimento_financeiro"
	TypePedagogicalSession  ActivityType = "atendimento_pedagogico"
	TypeRetention           ActivityType = "retencao"
	TypeChurn               ActivityType = "evasao"
	TypeContractCancelation ActivityType = "cancelamento_contrato"
	TypeMaterialReturn      ActivityType = "devolucao_material"
	TypeSystemRemoval       ActivityType = "baixa_sistema"
	TypeRecordUpdate        ActivityType = "atualizacao_cadastro"
)

// Category groups activity types by how they behave in the chain.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryChain
	CategoryTerminal
	CategoryTask
)

func (c Category) String() string {
	switch c {
	case CategoryChain:
		return "chain"
	case CategoryTerminal:
		return "terminal"
	case CategoryTask:
		return "task"
	default:
		return "unknown"
	}
}

// AllActivityTypes lists the closed set of activity types.
func AllActivityTypes() []ActivityType {
	return []ActivityType{
		TypeIntake,
		TypeFinancialSession,
		TypePedagogicalSession,
		TypeRetention,
		TypeChurn,
		TypeContractCancelation,
		TypeMaterialReturn,
		TypeSystemRemoval,
		TypeRecordUpdate,
	}
}

// TaskTypes lists the administrative task types.
func TaskTypes() []ActivityType {
	return []ActivityType{TypeContractCancelation, TypeMaterialReturn, TypeSystemRemoval, TypeRecordUpdate}
}

// Category classifies the activity type.
func (t ActivityType) Category() Category {
	switch t {
	case TypeIntake, TypeFinancialSession, TypePedagogicalSession:
		return CategoryChain
	case TypeRetention, TypeChurn:
		return CategoryTerminal
	case TypeContractCancelation, TypeMaterialReturn, TypeSystemRemoval, TypeRecordUpdate:
		return CategoryTask
	default:
		return CategoryUnknown
	}
}

// Valid reports whether t belongs to the closed set.
func (t ActivityType) Valid() bool { return t.Category() != CategoryUnknown }

// IsTerminal reports whether t finalizes an alert.
func (t ActivityType) IsTerminal() bool { return t.Category() == CategoryTerminal }

// IsTask reports whether t is an administrative task outside the chain.
func (t ActivityType) IsTask() bool { return t.Category() == CategoryTask }

// InChain reports whether t takes part in the alert's activity chain.
func (t ActivityType) InChain() bool {
	category := t.Category()
	return category == CategoryChain || category == CategoryTerminal
}

// ParseActivityType resolves a stored or submitted activity type.
func ParseActivityType(value string) (ActivityType, error) {
	candidate := ActivityType(strings.ToLower(strings.TrimSpace(value)))
	if !candidate.Valid() {
		return "", fmt.Errorf("unknown activity type %q", value)
	}
	return candidate, nil
}

// Decision is the staff choice made when completing a chain activity: either the next
// activity type or a negotiation outcome.
type Decision string

const (
	DecisionIntake              Decision = "acolhimento"
	DecisionFinancialSession    Decision = "atendimento_financeiro"
	DecisionPedagogicalSession  Decision = "atendimento_pedagogico"
	DecisionRetention           Decision = "retencao"
	DecisionPermanentAdjustment Decision = "ajuste_definitivo"
	DecisionTemporaryAdjustment Decision = "ajuste_temporario"
	DecisionChurn               Decision = "evasao"
)

// DecisionFrom merges the two ways a driver names a decision: a next activity type or an
// outcome. Supplying both with different values is rejected.
func DecisionFrom(nextType, outcome string) (Decision, error) {
	next := strings.ToLower(strings.TrimSpace(nextType))
	out := strings.ToLower(strings.TrimSpace(outcome))
	switch {
	case next != "" && out != "" && next != out:
		return "", invalid("decision", "next type and outcome disagree")
	case out != "":
		return Decision(out), nil
	default:
		return Decision(next), nil
	}
}

// RetentionKind qualifies a terminal retention.
type RetentionKind string

const (
	RetentionPlain     RetentionKind = ""
	RetentionPermanent RetentionKind = "ajuste_definitivo"
	RetentionTemporary RetentionKind = "ajuste_temporario"
)

// AlertStatus is derived from the alert's terminal activity, if any.
type AlertStatus string

const (
	AlertPending  AlertStatus = "pending"
	AlertRetained AlertStatus = "retained"
	AlertChurned  AlertStatus = "churned"
)

// ActivityStatus is the lifecycle state of one activity.
type ActivityStatus string

const (
	ActivityPending   ActivityStatus = "pending"
	ActivityCompleted ActivityStatus = "completed"
)

// OriginCode records how the risk of leaving was detected.
type OriginCode string

const (
	OriginAbsences           OriginCode = "faltas"
	OriginPaymentDefault     OriginCode = "inadimplencia"
	OriginCancelationRequest OriginCode = "solicitacao_cancelamento"
	OriginLowPerformance     OriginCode = "baixo_desempenho"
	OriginOther              OriginCode = "outro"
)

// ParseOriginCode resolves a submitted origin code.
func ParseOriginCode(value string) (OriginCode, error) {
	switch code := OriginCode(strings.ToLower(strings.TrimSpace(value))); code {
	case OriginAbsences, OriginPaymentDefault, OriginCancelationRequest, OriginLowPerformance, OriginOther:
		return code, nil
	default:
		return "", fmt.Errorf("unknown origin code %q", value)
	}
}
