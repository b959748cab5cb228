package errors

import (
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestCodeClassification(t *testing.T) {
	tests := []struct {
		code     Code
		grpc     codes.Code
		category Category
		retry    Retry
	}{
		{CodeOutOfWindow, codes.FailedPrecondition, CategoryState, RetryLater},
		{CodeAlreadyClaimed, codes.AlreadyExists, CategoryState, RetryNever},
		{CodeUnauthorized, codes.PermissionDenied, CategoryAuthorization, RetryChangeCaller},
		{CodeBelowMinimum, codes.InvalidArgument, CategoryValidation, RetryNever},
		{CodeLiquidityVenueUnavailable, codes.Unavailable, CategoryDependency, RetryLater},
		{CodeVotingStillOpen, codes.FailedPrecondition, CategoryState, RetryLater},
		{CodeMilestoneNotFound, codes.NotFound, CategoryState, RetryNever},
		{CodeUnknown, codes.Internal, CategoryInternal, RetryNever},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.GRPCCode(); got != tt.grpc {
				t.Fatalf("GRPCCode() = %v, want %v", got, tt.grpc)
			}
			if got := tt.code.Category(); got != tt.category {
				t.Fatalf("Category() = %s, want %s", got, tt.category)
			}
			if got := tt.code.Retry(); got != tt.retry {
				t.Fatalf("Retry() = %s, want %s", got, tt.retry)
			}
		})
	}
}

func TestCodeOfAndHasCode(t *testing.T) {
	base := New(CodeAlreadyReleased, "milestone already released")
	wrapped := fmt.Errorf("execute vote: %w", base)

	if got := CodeOf(wrapped); got != CodeAlreadyReleased {
		t.Fatalf("CodeOf() = %s, want %s", got, CodeAlreadyReleased)
	}
	if !HasCode(wrapped, CodeAlreadyReleased) {
		t.Fatal("expected wrapped error to carry code")
	}
	if HasCode(wrapped, CodeNotApproved) {
		t.Fatal("unexpected code match")
	}
	if got := CodeOf(fmt.Errorf("plain")); got != CodeUnknown {
		t.Fatalf("CodeOf(plain) = %s, want %s", got, CodeUnknown)
	}
	if got := CodeOf(nil); got != "" {
		t.Fatalf("CodeOf(nil) = %s, want empty", got)
	}
}

func TestToGRPCStatusAttachesDetails(t *testing.T) {
	err := WithMetadata(CodeBelowMinimum, "below minimum", map[string]string{"Min": "10"})
	st := status.Convert(err.ToGRPCStatus("en-US", "too small"))
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("status code = %v, want %v", st.Code(), codes.InvalidArgument)
	}
	var info *errdetails.ErrorInfo
	for _, detail := range st.Details() {
		if v, ok := detail.(*errdetails.ErrorInfo); ok {
			info = v
		}
	}
	if info == nil {
		t.Fatal("expected error info detail")
	}
	if info.GetReason() != string(CodeBelowMinimum) {
		t.Fatalf("reason = %s", info.GetReason())
	}
	if info.GetMetadata()["retry"] != string(RetryNever) || info.GetMetadata()["Min"] != "10" {
		t.Fatalf("metadata = %v", info.GetMetadata())
	}
}
