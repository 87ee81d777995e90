package cmd

import "github.com/sentinelgate/rbacguard/internal/rbacguard"

// registry holds the single process-wide Registry this CLI's commands share.
var registry = rbacguard.NewRegistry()
