package httputil

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIError carries everything a caller needs to report a failed request.
// It is rendered as the JSON body of every non-2xx response.
type APIError struct {
	RequestID string `json:"requestID"`
	Status    int    `json:"status"`
	ErrType   string `json:"type"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
}

// The API error taxonomy. Codes are grouped by concern: 1000s parsing,
// 2000s resource, 3000s database, 5000s process, 6000s security, 7000s OIDC.
var (
	// ErrAPIDecodeJSONBody must be used when the request body cannot be decoded as JSON
	ErrAPIDecodeJSONBody = APIError{Status: http.StatusBadRequest, ErrType: "ParsingError", Code: 1000, Message: `The request body is not valid JSON and could not be decoded`}
	// ErrAPIEncodeJSONBody must be used when the response cannot be encoded as JSON
	ErrAPIEncodeJSONBody = APIError{Status: http.StatusBadRequest, ErrType: "ParsingError", Code: 1001, Message: `The response could not be encoded as JSON`}
	// ErrAPIParsingInteger must be used when an integer path or query parameter cannot be parsed
	ErrAPIParsingInteger = APIError{Status: http.StatusBadRequest, ErrType: "ParsingError", Code: 1002, Message: `A parameter of type 'integer' could not be parsed`}
	// ErrAPIParsingDateTime must be used when a datetime query parameter cannot be parsed
	ErrAPIParsingDateTime = APIError{Status: http.StatusBadRequest, ErrType: "ParsingError", Code: 1003, Message: `A parameter of type 'datetime' could not be parsed, the expected layout is RFC3339 (example: "2020-06-23T15:30:01+02:00")`}
	// ErrAPIParsingUUID must be used when a uuid path or query parameter cannot be parsed
	ErrAPIParsingUUID = APIError{Status: http.StatusBadRequest, ErrType: "ParsingError", Code: 1007, Message: `A parameter of type 'uuid' could not be parsed (example: "123e4567-e89b-12d3-a456-426614174000")`}

	// ErrAPIMissingParam must be used when a mandatory parameter is absent from the query
	ErrAPIMissingParam = APIError{Status: http.StatusBadRequest, ErrType: "ResourceError", Code: 2000, Message: `A mandatory parameter is missing from the query`}
	// ErrAPIResourceInvalid must be used when a resource definition is parseable but semantically invalid
	ErrAPIResourceInvalid = APIError{Status: http.StatusBadRequest, ErrType: "ResourceError", Code: 2001, Message: `The resource definition could be parsed, but its content is invalid`}
	// ErrAPIResourceDuplicate must be used when the resource to create collides with an existing one
	ErrAPIResourceDuplicate = APIError{Status: http.StatusBadRequest, ErrType: "ResourceError", Code: 2002, Message: `A resource with the same identifier already exists`}
	// ErrAPITooManyRequests must be used when the caller exceeds its request rate budget
	ErrAPITooManyRequests = APIError{Status: http.StatusTooManyRequests, ErrType: "ResourceError", Code: 2004, Message: `Request rate limit exceeded, please retry later`}
	// ErrAPIServiceTransition must be used when a lifecycle operation is not allowed from the current service status
	ErrAPIServiceTransition = APIError{Status: http.StatusConflict, ErrType: "ResourceError", Code: 2005, Message: `The requested lifecycle transition is not allowed from the current service status`}

	// ErrAPIDBResourceNotFound must be used when the requested resource does not exist in the backend storage
	ErrAPIDBResourceNotFound = APIError{Status: http.StatusNotFound, ErrType: "ResourceError", Code: 3000, Message: `Resource not found`}
	// ErrAPIDBSelectFailed must be used when a select against the backend storage fails
	ErrAPIDBSelectFailed = APIError{Status: http.StatusInternalServerError, ErrType: "ResourceError", Code: 3001, Message: `The query failed against the backend storage`}
	// ErrAPIDBInsertFailed must be used when an insert against the backend storage fails
	ErrAPIDBInsertFailed = APIError{Status: http.StatusInternalServerError, ErrType: "ResourceError", Code: 3002, Message: `The resource could not be created`}
	// ErrAPIDBUpdateFailed must be used when an update against the backend storage fails
	ErrAPIDBUpdateFailed = APIError{Status: http.StatusInternalServerError, ErrType: "ResourceError", Code: 3003, Message: `The resource could not be updated`}
	// ErrAPIDBDeleteFailed must be used when a delete against the backend storage fails
	ErrAPIDBDeleteFailed = APIError{Status: http.StatusInternalServerError, ErrType: "ResourceError", Code: 3004, Message: `The resource could not be deleted`}
	// ErrAPIDBResourceNotFoundAfterInsert must be used when a resource cannot be read back right after its creation or update
	ErrAPIDBResourceNotFoundAfterInsert = APIError{Status: http.StatusInternalServerError, ErrType: "ResourceError", Code: 3005, Message: `The resource was not found after its creation`}

	// ErrAPIProcessError must be used when an internal error interrupts the request processing
	ErrAPIProcessError = APIError{Status: http.StatusInternalServerError, ErrType: "ProcessError", Code: 5000, Message: `An internal error occurred while processing the request`}

	// ErrAPISecurityMissingContext must be used when no security context is found (missing credentials,
	// missing jwt, etc.) or when the context is invalid (invalid jwt, unknown user, etc.)
	// The message stays deliberately vague, callers get no hint about what exactly was rejected
	ErrAPISecurityMissingContext = APIError{Status: http.StatusUnauthorized, ErrType: "SecurityError", Code: 6000, Message: `Security error, please contact an administrator`}
	// ErrAPISecurityNoPermissions must be used when the user is authenticated but lacks the required permission
	ErrAPISecurityNoPermissions = APIError{Status: http.StatusForbidden, ErrType: "SecurityError", Code: 6001, Message: `Security error, please contact an administrator`}

	// ErrAPIGenerateRandomStateFailed must be used when the OIDC random state cannot be generated
	ErrAPIGenerateRandomStateFailed = APIError{Status: http.StatusInternalServerError, ErrType: "ProcessError", Code: 7000, Message: `The OIDC state could not be generated`}
	// ErrAPIInvalidOIDCState must be used when the state of the OIDC callback does not match the expected one
	ErrAPIInvalidOIDCState = APIError{Status: http.StatusBadRequest, ErrType: "SecurityError", Code: 7002, Message: `The state parameter of the OIDC callback does not match the expected state`}
	// ErrAPIExchangeOIDCTokenFailed must be used when the authorization code cannot be exchanged against a token
	ErrAPIExchangeOIDCTokenFailed = APIError{Status: http.StatusInternalServerError, ErrType: "ProcessError", Code: 7003, Message: `The OIDC token exchange failed`}
	// ErrAPINoIDOIDCToken must be used when the token response carries no id_token
	ErrAPINoIDOIDCToken = APIError{Status: http.StatusInternalServerError, ErrType: "ProcessError", Code: 7004, Message: `The OIDC response carries no ID token`}
	// ErrAPIVerifyIDOIDCTokenFailed must be used when the id_token signature or claims cannot be verified
	ErrAPIVerifyIDOIDCTokenFailed = APIError{Status: http.StatusInternalServerError, ErrType: "ProcessError", Code: 7005, Message: `The OIDC ID token could not be verified`}
	// ErrAPIInvalidAuthToken must be used when the presented authentication token is invalid
	ErrAPIInvalidAuthToken = APIError{Status: http.StatusUnauthorized, ErrType: "ProcessError", Code: 7007, Message: `Invalid authentication token`}
	// ErrAPIExpiredAuthToken must be used when the presented authentication token has expired
	ErrAPIExpiredAuthToken = APIError{Status: http.StatusUnauthorized, ErrType: "ProcessError", Code: 7008, Message: `Expired authentication token`}
	// ErrAPIMissingIDTokenFromContext must be used when the request context carries no verified ID token
	ErrAPIMissingIDTokenFromContext = APIError{Status: http.StatusUnauthorized, ErrType: "ProcessError", Code: 7009, Message: `No ID token found in the request context`}
	// ErrAPIFailedToGetUserClaims must be used when the user claims cannot be extracted from the ID token
	ErrAPIFailedToGetUserClaims = APIError{Status: http.StatusInternalServerError, ErrType: "ProcessError", Code: 7010, Message: `The user claims could not be read from the ID token`}
)

// displayedErrorDetails lists the errors whose details are rendered to the
// client even when verbose errors are disabled. Validation and lifecycle
// errors are actionable by the caller, the underlying cause is part of the answer.
var displayedErrorDetails = []APIError{
	ErrAPIResourceInvalid,
	ErrAPIServiceTransition,
}

// OK answers a HTTP status 200 with an empty body
func OK(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
}

// JSON encodes data on the ResponseWriter with a status 200, or falls back on an API error
func JSON(w http.ResponseWriter, r *http.Request, data interface{}) {
	OK(w, r)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("Render JSON encode", zap.Error(err))
		Error(w, r, ErrAPIEncodeJSONBody, err)
	}
}

// Error renders an APIError as JSON with its matching HTTP status.
// With HTTP_SERVER_API_ENABLE_VERBOSE_ERROR set, the underlying error is
// rendered in the details field of every answer, otherwise only the
// whitelisted errors of displayedErrorDetails carry their details.
func Error(w http.ResponseWriter, r *http.Request, apiError APIError, err error) {
	apiError.RequestID = middleware.GetReqID(r.Context())
	if err != nil && detailsAllowed(apiError) {
		apiError.Details = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiError.Status)
	if encodeErr := json.NewEncoder(w).Encode(apiError); encodeErr != nil {
		zap.L().Error("Error JSON encode", zap.Error(encodeErr))
	}
}

func detailsAllowed(apiError APIError) bool {
	if viper.GetBool("HTTP_SERVER_API_ENABLE_VERBOSE_ERROR") {
		return true
	}
	for _, allowed := range displayedErrorDetails {
		if allowed.Code == apiError.Code {
			return true
		}
	}
	return false
}
