package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "FMS Portal API",
        "description": "Tuition and fee management portal for students and administrators",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh and password reset"},
        {"name": "Programmes", "description": "Academic programme catalogue"},
        {"name": "Bill types", "description": "Bill categories"},
        {"name": "Bills", "description": "Charges levied against students"},
        {"name": "Payments", "description": "Gateway checkout, verification and receipts"},
        {"name": "Financial aid", "description": "Aid types, discounts and applications"},
        {"name": "Students", "description": "Student account management"},
        {"name": "Admins", "description": "Admin account management"},
        {"name": "Student portal", "description": "The student's own bills, payments and aid"},
        {"name": "Dashboards", "description": "Cached billing aggregates"},
        {"name": "Exports", "description": "CSV and PDF downloads"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {"200": {"description": "Ready"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Token expired or revoked"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Logout current session everywhere",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/auth/password/reset/request": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Request a password reset link",
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/auth/password/reset": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Reset password with a token",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/programmes": {
            "get": {
                "tags": ["Programmes"],
                "summary": "List programmes",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Page"}}}
            },
            "post": {
                "tags": ["Programmes"],
                "summary": "Create programme",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}}}
            }
        },
        "/bills": {
            "get": {
                "tags": ["Bills"],
                "summary": "List bills",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Page"}}}
            },
            "post": {
                "tags": ["Bills"],
                "summary": "Create bill",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BillRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}}}
            }
        },
        "/transaction/initiate": {
            "post": {
                "tags": ["Payments"],
                "summary": "Open a hosted checkout session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/InitiatePaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Bill already settled"}
                }
            }
        },
        "/transaction/verify/{reference}": {
            "get": {
                "tags": ["Payments"],
                "summary": "Verify a payment by reference",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "reference", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "502": {"description": "Gateway unavailable"}
                }
            }
        },
        "/financial-aid-applications": {
            "post": {
                "tags": ["Financial aid"],
                "summary": "Apply for financial aid",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "type", "in": "formData", "required": true, "type": "string"},
                    {"name": "household_income", "in": "formData", "required": true, "type": "integer"},
                    {"name": "bank_statement", "in": "formData", "required": true, "type": "file"},
                    {"name": "cover_letter", "in": "formData", "required": true, "type": "file"},
                    {"name": "letter_of_recommendation", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "An open application already exists"}
                }
            }
        },
        "/student/stats/dashboard": {
            "get": {
                "tags": ["Dashboards"],
                "summary": "Student dashboard",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}}
            }
        },
        "/admin/stats/dashboard": {
            "get": {
                "tags": ["Dashboards"],
                "summary": "Admin dashboard",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "BillRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "amount_due": {"type": "integer"},
                "due_date": {"type": "string"},
                "installment_supported": {"type": "boolean"},
                "max_installments": {"type": "integer"},
                "bill_type_id": {"type": "string"}
            },
            "required": ["name", "amount_due", "due_date", "bill_type_id"]
        },
        "InitiatePaymentRequest": {
            "type": "object",
            "properties": {
                "bill_id": {"type": "string"},
                "amount": {"type": "integer"},
                "category_id": {"type": "string"},
                "payment_note": {"type": "string"}
            },
            "required": ["bill_id", "amount", "category_id"]
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"type": "object"}
            }
        },
        "Page": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "count": {"type": "integer"},
                "total": {"type": "integer"},
                "data": {"type": "array", "items": {"type": "object"}}
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
