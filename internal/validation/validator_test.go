// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package validation

import (
	"strings"
	"testing"
)

type testCreditRequest struct {
	AdminSecret string `json:"admin_secret" validate:"required,min=16"`
	DryRun      bool   `json:"dry_run"`
}

type testEventRequest struct {
	PartnerID string `json:"partner_id" validate:"required"`
	EventType string `json:"event_type" validate:"required,oneof=click visit conversion"`
}

func TestValidateStruct_Valid(t *testing.T) {
	t.Parallel()

	req := testCreditRequest{
		AdminSecret: "0123456789abcdef0123456789abcdef",
		DryRun:      true,
	}

	if verr := ValidateStruct(&req); verr != nil {
		t.Errorf("ValidateStruct() = %v, want nil", verr)
	}
}

func TestValidateStruct_MissingRequired(t *testing.T) {
	t.Parallel()

	req := testCreditRequest{}

	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}

	errs := verr.Errors()
	if len(errs) != 1 {
		t.Fatalf("len(Errors()) = %d, want 1", len(errs))
	}
	if errs[0].Field() != "AdminSecret" {
		t.Errorf("Field() = %q, want AdminSecret", errs[0].Field())
	}
	if errs[0].Tag() != "required" {
		t.Errorf("Tag() = %q, want required", errs[0].Tag())
	}
	if !strings.Contains(errs[0].Error(), "required") {
		t.Errorf("Error() = %q, want mention of required", errs[0].Error())
	}
}

func TestValidateStruct_MinLength(t *testing.T) {
	t.Parallel()

	req := testCreditRequest{AdminSecret: "short"}

	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}

	errs := verr.Errors()
	if len(errs) != 1 {
		t.Fatalf("len(Errors()) = %d, want 1", len(errs))
	}
	if errs[0].Tag() != "min" {
		t.Errorf("Tag() = %q, want min", errs[0].Tag())
	}
	if !strings.Contains(errs[0].Error(), "at least 16 characters") {
		t.Errorf("Error() = %q, want character count message", errs[0].Error())
	}
}

func TestValidateStruct_OneOf(t *testing.T) {
	t.Parallel()

	req := testEventRequest{PartnerID: "P1", EventType: "install"}

	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}

	errs := verr.Errors()
	if len(errs) != 1 {
		t.Fatalf("len(Errors()) = %d, want 1", len(errs))
	}
	if errs[0].Tag() != "oneof" {
		t.Errorf("Tag() = %q, want oneof", errs[0].Tag())
	}
	if !strings.Contains(errs[0].Error(), "must be one of") {
		t.Errorf("Error() = %q, want oneof message", errs[0].Error())
	}
}

func TestToAPIError_SingleField(t *testing.T) {
	t.Parallel()

	req := testEventRequest{EventType: "click"}

	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_FAILED" {
		t.Errorf("Code = %q, want VALIDATION_FAILED", apiErr.Code)
	}
	if apiErr.Details["field"] != "PartnerID" {
		t.Errorf("Details[field] = %v, want PartnerID", apiErr.Details["field"])
	}
}

func TestToAPIError_MultipleFields(t *testing.T) {
	t.Parallel()

	req := testEventRequest{}

	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}
	if len(verr.Errors()) != 2 {
		t.Fatalf("len(Errors()) = %d, want 2", len(verr.Errors()))
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_FAILED" {
		t.Errorf("Code = %q, want VALIDATION_FAILED", apiErr.Code)
	}
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("Details[fields] has type %T, want []map[string]interface{}", apiErr.Details["fields"])
	}
	if len(fields) != 2 {
		t.Errorf("len(fields) = %d, want 2", len(fields))
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	v1 := GetValidator()
	v2 := GetValidator()
	if v1 != v2 {
		t.Error("GetValidator() returned different instances")
	}
}
