package auth

import "context"

type contextKey string

const (
	contextKeyCompany contextKey = "auth.company_id"
	contextKeyRole    contextKey = "auth.role"
	contextKeySubject contextKey = "auth.subject"
)

// WithIdentity stores the caller's company, role, and subject in context.
// Every tenant-scoped operation downstream reads the company id from here
// rather than trusting request parameters.
func WithIdentity(ctx context.Context, companyID string, role Role, subject string) context.Context {
	ctx = context.WithValue(ctx, contextKeyCompany, companyID)
	ctx = context.WithValue(ctx, contextKeyRole, role)
	ctx = context.WithValue(ctx, contextKeySubject, subject)
	return ctx
}

// CompanyIDFromContext returns the caller's company id, or "" when the
// request carries no identity.
func CompanyIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if companyID, ok := ctx.Value(contextKeyCompany).(string); ok {
		return companyID
	}
	return ""
}

// RoleFromContext returns the caller's role, or "" when absent.
func RoleFromContext(ctx context.Context) Role {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyRole)
	if role, ok := value.(Role); ok {
		return role
	}
	if raw, ok := value.(string); ok {
		if role, valid := NormalizeRole(raw); valid {
			return role
		}
	}
	return ""
}

// SubjectFromContext returns the operator id from the token subject.
func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if subject, ok := ctx.Value(contextKeySubject).(string); ok {
		return subject
	}
	return ""
}
