package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Events API",
        "description": "Event registration, geofenced attendance and certificate issuance for campus events.",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Accounts and tokens"},
        {"name": "Events", "description": "Event catalogue"},
        {"name": "Registrations", "description": "Event registrations"},
        {"name": "Attendance", "description": "Check-in and attendance rosters"},
        {"name": "Certificates", "description": "Participation certificates"},
        {"name": "Feedback", "description": "Post-event feedback"},
        {"name": "Announcements", "description": "Event announcements"},
        {"name": "Analytics", "description": "Dashboards and system metrics"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Create an account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange credentials for tokens",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "List published, live and completed events",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Events"],
                "summary": "Create event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/{id}": {
            "get": {
                "tags": ["Events"],
                "summary": "Get event",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Events"],
                "summary": "Delete event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/registrations": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Register for an event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRegistrationRequest"}}
                ],
                "responses": {
                    "200": {"description": "Cancelled registration reactivated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Event full or already registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/mark": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Self check-in, geofenced when the event requires it",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelfCheckInRequest"}}
                ],
                "responses": {
                    "200": {"description": "Attendance marked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "LOCATION_REQUIRED or OUT_OF_RANGE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Event not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/events/{eventId}/export": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Export attendance roster as CSV",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "eventId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        },
        "/certificates/issue": {
            "post": {
                "tags": ["Certificates"],
                "summary": "Issue a certificate to one attendee",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/IssueCertificateRequest"}}
                ],
                "responses": {
                    "200": {"description": "Already issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "NOT_ELIGIBLE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/certificates/bulk-issue": {
            "post": {
                "tags": ["Certificates"],
                "summary": "Issue certificates to every eligible attendee",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkIssueRequest"}}
                ],
                "responses": {
                    "200": {"description": "Issued, skipped and failed counts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/certificates/download/{id}": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Download certificate PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF file"},
                    "410": {"description": "Certificate revoked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/certificates/verify/{number}": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Public certificate verification",
                "parameters": [
                    {"name": "number", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown certificate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/feedback": {
            "post": {
                "tags": ["Feedback"],
                "summary": "Submit feedback for an attended event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitFeedbackRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/announcements": {
            "post": {
                "tags": ["Announcements"],
                "summary": "Post an announcement and email registrants",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAnnouncementRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analytics/organizer": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Organizer dashboard",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analytics/system": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Process and cache metrics",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "first_name", "last_name"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "role": {"type": "string", "enum": ["STUDENT", "ORGANIZER"]}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateEventRequest": {
            "type": "object",
            "required": ["title", "event_type", "category", "start_date_time", "end_date_time"],
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "event_type": {"type": "string"},
                "category": {"type": "string"},
                "start_date_time": {"type": "string", "format": "date-time"},
                "end_date_time": {"type": "string", "format": "date-time"},
                "venue": {"type": "string"},
                "is_online": {"type": "boolean"},
                "max_participants": {"type": "integer"},
                "attendance_method": {"type": "string", "enum": ["MANUAL", "QR_CODE", "SELF_CHECKIN", "GEOFENCE", "HYBRID"]},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "geofence_radius": {"type": "number"}
            }
        },
        "CreateRegistrationRequest": {
            "type": "object",
            "required": ["event_id"],
            "properties": {
                "event_id": {"type": "string"}
            }
        },
        "SelfCheckInRequest": {
            "type": "object",
            "required": ["event_id"],
            "properties": {
                "event_id": {"type": "string"},
                "status": {"type": "string", "enum": ["PRESENT", "ABSENT", "LATE", "EXCUSED"]},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"}
            }
        },
        "IssueCertificateRequest": {
            "type": "object",
            "required": ["event_id", "user_id"],
            "properties": {
                "event_id": {"type": "string"},
                "user_id": {"type": "string"}
            }
        },
        "BulkIssueRequest": {
            "type": "object",
            "required": ["event_id"],
            "properties": {
                "event_id": {"type": "string"}
            }
        },
        "SubmitFeedbackRequest": {
            "type": "object",
            "required": ["event_id", "rating"],
            "properties": {
                "event_id": {"type": "string"},
                "rating": {"type": "integer", "minimum": 1, "maximum": 5},
                "comments": {"type": "string"},
                "is_anonymous": {"type": "boolean"}
            }
        },
        "CreateAnnouncementRequest": {
            "type": "object",
            "required": ["event_id", "title", "content"],
            "properties": {
                "event_id": {"type": "string"},
                "title": {"type": "string"},
                "content": {"type": "string"},
                "priority": {"type": "string", "enum": ["LOW", "NORMAL", "HIGH", "URGENT"]},
                "send_to_registered": {"type": "boolean"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "message": {"type": "string"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
