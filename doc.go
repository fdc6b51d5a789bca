// Package dataapi is the entry point of the DataAPI Go SDK.
//
// New wires a validated config.Config into an authenticated, retrying HTTP
// client and exposes the resource wrappers on it:
//
//	cfg, err := config.Load()
//	if err != nil {
//		return err
//	}
//	client, err := dataapi.New(cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	page, err := client.Workflows.Page(ctx, resources.WorkflowQuery{}, resources.PageRequest{Size: 50})
//
// Every failure is an *apierror.Error; use apierror.KindOf or apierror.IsRetryable
// to branch on it.
package dataapi
