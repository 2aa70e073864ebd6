package multisig

import "multisig-wallet-go/internal/models"

// ExecutionPolicy selects behaviour that differs between deployments.
type ExecutionPolicy struct {
	// AutoExecuteOnConfirm attempts execution as soon as a confirmation
	// reaches quorum and the time-lock has elapsed.
	AutoExecuteOnConfirm bool
	// EnforceSpendingLimits reserves against the spending limit on execution.
	// When false, limits only influence the unanimity flag at proposal time.
	EnforceSpendingLimits bool
}

func DefaultPolicy() ExecutionPolicy {
	return ExecutionPolicy{EnforceSpendingLimits: true}
}

func PolicyFromConfig(cfg models.PolicyConfig) ExecutionPolicy {
	return ExecutionPolicy{
		AutoExecuteOnConfirm:  cfg.AutoExecuteOnConfirm,
		EnforceSpendingLimits: cfg.EnforceSpendingLimits,
	}
}
