package validator

import (
	"testing"

	"mentorhub/entity"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	v := New()

	assert.NotNil(t, v)
	assert.NotNil(t, v.validator)
}

func TestValidator_ValidateStruct_Success(t *testing.T) {
	v := New()

	// Test with valid registration request
	req := entity.RegisterRequest{
		Email:    "student@example.com",
		Password: "sup3rsecret",
		FullName: "Sam Learner",
		Role:     "student",
	}

	err := v.ValidateStruct(&req)
	assert.NoError(t, err)
}

func TestValidator_ValidateStruct_InvalidEmail(t *testing.T) {
	v := New()

	req := entity.RegisterRequest{
		Email:    "not-an-email",
		Password: "sup3rsecret",
		FullName: "Sam Learner",
	}

	err := v.ValidateStruct(&req)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

func TestValidator_ValidateStruct_MissingEmail(t *testing.T) {
	v := New()

	req := entity.RegisterRequest{
		Password: "sup3rsecret",
		FullName: "Sam Learner",
	}

	err := v.ValidateStruct(&req)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "is required")
}

func TestValidator_ValidatePassword_Valid(t *testing.T) {
	v := New()

	validPasswords := []string{
		"abcdefg1",
		"sup3rsecret",
		"Password9",
		"1234567a",
		"x9x9x9x9x9",
		"correct horse battery 1",
	}

	for _, password := range validPasswords {
		req := entity.RegisterRequest{
			Email:    "student@example.com",
			Password: password,
			FullName: "Sam Learner",
		}
		err := v.ValidateStruct(&req)
		assert.NoError(t, err, "Password %q should be valid", password)
	}
}

func TestValidator_ValidatePassword_Invalid(t *testing.T) {
	v := New()

	invalidPasswords := []string{
		"",         // empty
		"short1",   // under 8 characters
		"abcdefgh", // no digit
		"12345678", // no letter
		"a1",       // far too short
		"!!!!!!!!", // neither letter nor digit
	}

	for _, password := range invalidPasswords {
		req := entity.RegisterRequest{
			Email:    "student@example.com",
			Password: password,
			FullName: "Sam Learner",
		}
		err := v.ValidateStruct(&req)
		assert.Error(t, err, "Password %q should be invalid", password)
	}
}

func TestValidator_ValidateVerifyEmailRequest_Success(t *testing.T) {
	v := New()

	req := entity.VerifyEmailRequest{
		Email: "student@example.com",
		Code:  "123456",
	}

	err := v.ValidateStruct(&req)
	assert.NoError(t, err)
}

func TestValidator_ValidateVerifyEmailRequest_NonNumericCode(t *testing.T) {
	v := New()

	req := entity.VerifyEmailRequest{
		Email: "student@example.com",
		Code:  "12a456",
	}

	err := v.ValidateStruct(&req)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "code")
	assert.Contains(t, err.Error(), "only digits")
}

func TestValidator_ValidateVerifyEmailRequest_MissingCode(t *testing.T) {
	v := New()

	req := entity.VerifyEmailRequest{
		Email: "student@example.com",
	}

	err := v.ValidateStruct(&req)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "code")
}

func TestValidator_ValidateRegisterRequest_InvalidRole(t *testing.T) {
	v := New()

	req := entity.RegisterRequest{
		Email:    "student@example.com",
		Password: "sup3rsecret",
		FullName: "Sam Learner",
		Role:     "admin",
	}

	err := v.ValidateStruct(&req)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "role")
	assert.Contains(t, err.Error(), "must be one of")
}

func TestValidator_ValidateSubmitAssessmentRequest_WrongLength(t *testing.T) {
	v := New()

	req := entity.SubmitAssessmentRequest{
		Responses: []int{1, 2, 3},
	}

	err := v.ValidateStruct(&req)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "responses")
	assert.Contains(t, err.Error(), "exactly 25 items")
}

func TestValidator_ValidateSubmitAssessmentRequest_OutOfRange(t *testing.T) {
	v := New()

	responses := make([]int, entity.AssessmentItemCount)
	for i := range responses {
		responses[i] = 3
	}
	responses[7] = 9

	req := entity.SubmitAssessmentRequest{Responses: responses}

	err := v.ValidateStruct(&req)
	assert.Error(t, err)
}

func TestValidator_ValidateUpdateProfileRequest_EmptySubjects(t *testing.T) {
	v := New()

	req := entity.UpdateProfileRequest{
		Headline: "Physics tutor",
		Subjects: []string{},
	}

	err := v.ValidateStruct(&req)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "subjects")
}

func TestValidator_ValidateStruct_NilInput(t *testing.T) {
	v := New()

	err := v.ValidateStruct(nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "input cannot be nil")
}

func TestValidator_ValidateStruct_NonStruct(t *testing.T) {
	v := New()

	err := v.ValidateStruct("not a struct")
	assert.Error(t, err)
}

// Test the direct validatePassword function
func TestValidatePassword_Direct(t *testing.T) {
	// Create a validator instance to access the custom validation function
	v := validator.New()
	v.RegisterValidation("password", validatePassword)

	validPasswords := []string{
		"abcdefg1",
		"sup3rsecret",
		"pässw0rded",
	}

	for _, password := range validPasswords {
		err := v.Var(password, "password")
		assert.NoError(t, err, "Password %q should be valid", password)
	}

	invalidPasswords := []string{
		"short1",
		"abcdefgh",
		"12345678",
	}

	for _, password := range invalidPasswords {
		err := v.Var(password, "password")
		assert.Error(t, err, "Password %q should be invalid", password)
	}
}

func TestValidator_ComplexValidationScenarios(t *testing.T) {
	v := New()

	testCases := []struct {
		name        string
		email       string
		password    string
		fullName    string
		expectError bool
		errorText   string
	}{
		{
			name:        "Valid Student",
			email:       "student@example.com",
			password:    "sup3rsecret",
			fullName:    "Sam Learner",
			expectError: false,
		},
		{
			name:        "Valid Plus Address",
			email:       "sam+mentor@example.co.uk",
			password:    "sup3rsecret",
			fullName:    "Sam Learner",
			expectError: false,
		},
		{
			name:        "Invalid - Bad Email",
			email:       "student@",
			password:    "sup3rsecret",
			fullName:    "Sam Learner",
			expectError: true,
			errorText:   "must be a valid email address",
		},
		{
			name:        "Invalid - Weak Password",
			email:       "student@example.com",
			password:    "password",
			fullName:    "Sam Learner",
			expectError: true,
			errorText:   "contain a letter and a digit",
		},
		{
			name:        "Invalid - Short Name",
			email:       "student@example.com",
			password:    "sup3rsecret",
			fullName:    "S",
			expectError: true,
			errorText:   "full_name",
		},
		{
			name:        "Invalid - Everything Missing",
			email:       "",
			password:    "",
			fullName:    "",
			expectError: true,
			errorText:   "is required",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := entity.RegisterRequest{
				Email:    tc.email,
				Password: tc.password,
				FullName: tc.fullName,
			}
			err := v.ValidateStruct(&req)

			if tc.expectError {
				assert.Error(t, err)
				if tc.errorText != "" {
					assert.Contains(t, err.Error(), tc.errorText)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
