/*
Package accountsdk provides the wire types and a small client for the
eventpass accounts service.

# Overview

Attendees register, wait for an administrator to approve their payment, and
then log in to receive a bearer session token:

	client := accountsdk.NewClient("https://accounts.example.com")

	reg, err := client.Register(ctx, accountsdk.RegisterRequest{
		Email:    "ada@example.com",
		Password: "Str0ng!pass",
		FullName: "Ada Lovelace",
		State:    "NSW",
		Address:  "1 Example St",
	})
	// reg.PaymentStatus == "pending"

	session, err := client.Login(ctx, "ada@example.com", "Str0ng!pass")
	var apiErr *accountsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Status == accountsdk.StatusPending {
		// still waiting for approval
	}

# Validation

RegisterRequest and LoginRequest can be validated before they are sent. The
server runs the same rules:

	if errs := req.Validate(); errs != nil {
		for field, msg := range errs {
			fmt.Printf("%s: %s\n", field, msg)
		}
	}

# Errors

Every non-2xx response is returned as *APIError carrying the HTTP status, the
"error" message and, for approval-gate refusals, the registration status.
*/
package accountsdk
