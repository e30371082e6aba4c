package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Workspace errors
// 12000-12999: Build & Test pipeline errors
// 13000-13999: Coverage & Mutation analysis errors
// 14000-14999: Room & Game session errors
// 15000-15999: Player errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	TooManyRequests     ErrorCode = 10004
	ServiceUnavailable  ErrorCode = 10005
	Timeout             ErrorCode = 10006

	// Store errors (10100-10199)
	StoreError     ErrorCode = 10100
	RecordNotFound ErrorCode = 10101
	StoreSetFailed ErrorCode = 10102

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	RequiredFieldEmpty ErrorCode = 10301

	// ========== Workspace Errors (11000-11999) ==========

	WorkspaceCreateFailed  ErrorCode = 11000
	WorkspaceWriteFailed   ErrorCode = 11001
	WorkspaceTemplateError ErrorCode = 11002

	// ========== Build & Test Pipeline Errors (12000-12999) ==========

	// Tool invocation (12000-12099)
	ToolStartFailed ErrorCode = 12000
	ToolTimeout     ErrorCode = 12001

	// Stages (12100-12199)
	RestoreFailed      ErrorCode = 12100
	ReferenceBuildFail ErrorCode = 12101
	TestBuildFail      ErrorCode = 12102
	TestRunTimeout     ErrorCode = 12103
	TestRunFailed      ErrorCode = 12104
	PipelineBusy       ErrorCode = 12105

	// ========== Coverage & Mutation Errors (13000-13999) ==========

	CoverageRunFailed    ErrorCode = 13000
	CoverageParseFailed  ErrorCode = 13001
	MutationToolFailed   ErrorCode = 13100
	MutationReportBroken ErrorCode = 13101
	MutationTimeout      ErrorCode = 13102

	// ========== Room & Game Session Errors (14000-14999) ==========

	// Room (14000-14099)
	RoomNotFound      ErrorCode = 14000
	RoomCodeTaken     ErrorCode = 14001
	RoomFull          ErrorCode = 14002
	NotEnoughPlayers  ErrorCode = 14003
	PlayersNotReady   ErrorCode = 14004
	AlreadyInRoom     ErrorCode = 14005
	NotARoomMember    ErrorCode = 14006
	RoomHasActiveGame ErrorCode = 14007

	// Session (14100-14199)
	GameNotFound        ErrorCode = 14100
	GameNotPlaying      ErrorCode = 14101
	GameAlreadyFinished ErrorCode = 14102
	InvalidTransition   ErrorCode = 14103
	NotAParticipant     ErrorCode = 14104
	EmptySubmission     ErrorCode = 14105
	ChallengeNotFound   ErrorCode = 14106

	// ========== Player Errors (15000-15999) ==========

	PlayerNotFound    ErrorCode = 15000
	StatsUpdateFailed ErrorCode = 15001
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Store
	StoreError:     "Store operation failed",
	RecordNotFound: "Record not found in store",
	StoreSetFailed: "Failed to write record",

	// Validation
	ValidationFailed:   "Validation failed",
	RequiredFieldEmpty: "Required field is empty",

	// Workspace
	WorkspaceCreateFailed:  "Failed to create workspace",
	WorkspaceWriteFailed:   "Failed to write workspace files",
	WorkspaceTemplateError: "Workspace template is missing or unreadable",

	// Build & Test pipeline
	ToolStartFailed:    "Failed to start external tool",
	ToolTimeout:        "External tool timed out",
	RestoreFailed:      "Dependency restore failed",
	ReferenceBuildFail: "Reference project failed to build",
	TestBuildFail:      "Test project failed to build",
	TestRunTimeout:     "Test execution timed out",
	TestRunFailed:      "Test execution failed",
	PipelineBusy:       "Execution pipeline is at capacity",

	// Coverage & Mutation
	CoverageRunFailed:    "Instrumented test run failed",
	CoverageParseFailed:  "Failed to parse coverage report",
	MutationToolFailed:   "Mutation testing tool failed",
	MutationReportBroken: "Mutation report is missing or malformed",
	MutationTimeout:      "Mutation testing timed out",

	// Room
	RoomNotFound:      "Room not found",
	RoomCodeTaken:     "Room code already in use",
	RoomFull:          "Room is full",
	NotEnoughPlayers:  "At least two players are required",
	PlayersNotReady:   "Not all players are ready",
	AlreadyInRoom:     "Player is already in the room",
	NotARoomMember:    "Player is not a member of the room",
	RoomHasActiveGame: "Room already has an active game",

	// Session
	GameNotFound:        "Game session not found",
	GameNotPlaying:      "Game session is not in playing state",
	GameAlreadyFinished: "Game session is already finished",
	InvalidTransition:   "Invalid game state transition",
	NotAParticipant:     "Player is not a participant of this game",
	EmptySubmission:     "Submitted test code is empty",
	ChallengeNotFound:   "Challenge not found",

	// Player
	PlayerNotFound:    "Player not found",
	StatsUpdateFailed: "Failed to update player statistics",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == RecordNotFound, c == RoomNotFound,
		c == GameNotFound, c == ChallengeNotFound, c == PlayerNotFound:
		return 404
	case c == TooManyRequests, c == PipelineBusy:
		return 429
	case c == ServiceUnavailable:
		return 503
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == EmptySubmission:
		return 400
	case c >= 14000 && c < 15000: // Room/session precondition failures
		return 409
	default:
		return 500
	}
}
