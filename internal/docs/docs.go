// Package docs holds the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o internal/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "User registered and tokens generated", "schema": {"$ref": "#/definitions/handlers.AuthResponse"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login user",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}],
                "responses": {
                    "200": {"description": "User authenticated and tokens generated", "schema": {"$ref": "#/definitions/handlers.AuthResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["auth"],
                "summary": "Refresh tokens",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.RefreshRequest"}}],
                "responses": {
                    "200": {"description": "New tokens", "schema": {"$ref": "#/definitions/handlers.AuthResponse"}},
                    "401": {"description": "Invalid or expired refresh token", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["user"],
                "summary": "Get user profile",
                "responses": {
                    "200": {"description": "User profile", "schema": {"$ref": "#/definitions/handlers.UserResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/transactions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["transactions"],
                "summary": "Get user transactions",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"},
                    {"type": "string", "description": "Month as YYYY-MM", "name": "period", "in": "query"},
                    {"type": "integer", "name": "year", "in": "query"},
                    {"type": "integer", "name": "month", "in": "query"},
                    {"type": "string", "name": "kind", "in": "query"},
                    {"type": "string", "name": "category", "in": "query"},
                    {"type": "boolean", "name": "is_shared", "in": "query"},
                    {"type": "string", "name": "recurrence_group", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Paginated transactions"},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["transactions"],
                "summary": "Create a transaction",
                "description": "With installments > 1 the transaction is repeated at the given frequency and all records share one recurrence group.",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateTransactionRequest"}}],
                "responses": {
                    "201": {"description": "Transactions created", "schema": {"$ref": "#/definitions/handlers.CreateTransactionsResponse"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Only some installments were created", "schema": {"$ref": "#/definitions/handlers.PartialCreateResponse"}}
                }
            }
        },
        "/transactions/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["transactions"],
                "summary": "Get transaction by ID",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Transaction details", "schema": {"$ref": "#/definitions/handlers.TransactionResponse"}},
                    "404": {"description": "Transaction not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["transactions"],
                "summary": "Update transaction",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.TransactionFields"}}
                ],
                "responses": {
                    "200": {"description": "Updated transaction", "schema": {"$ref": "#/definitions/handlers.TransactionResponse"}},
                    "404": {"description": "Transaction not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["transactions"],
                "summary": "Delete transaction",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Transaction deleted", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "404": {"description": "Transaction not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/categories": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "Get user categories",
                "parameters": [{"type": "string", "name": "kind", "in": "query"}],
                "responses": {
                    "200": {"description": "List of categories", "schema": {"type": "array", "items": {"$ref": "#/definitions/handlers.CategoryResponse"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "Create a category",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateCategoryRequest"}}],
                "responses": {
                    "201": {"description": "Category created", "schema": {"$ref": "#/definitions/handlers.CategoryResponse"}},
                    "409": {"description": "Category already exists", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/categories/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "Get category by ID",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Category details", "schema": {"$ref": "#/definitions/handlers.CategoryResponse"}},
                    "404": {"description": "Category not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "Delete category",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Category deleted", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "404": {"description": "Category not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/summary": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["summary"],
                "summary": "Get monthly summary",
                "parameters": [
                    {"type": "string", "description": "Month as YYYY-MM", "name": "period", "in": "query"},
                    {"type": "integer", "name": "year", "in": "query"},
                    {"type": "integer", "name": "month", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Monthly summary", "schema": {"$ref": "#/definitions/handlers.SummaryResponse"}},
                    "400": {"description": "Invalid period", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorDetail": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"$ref": "#/definitions/handlers.ErrorDetail"}}
        },
        "handlers.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "handlers.RegisterRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}, "name": {"type": "string"}}
        },
        "handlers.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "handlers.RefreshRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {"refresh_token": {"type": "string"}}
        },
        "handlers.UserResponse": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "email": {"type": "string"}, "name": {"type": "string"}, "last_login_at": {"type": "string"}}
        },
        "handlers.AuthResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"},
                "user": {"$ref": "#/definitions/handlers.UserResponse"}
            }
        },
        "handlers.SplitDetails": {
            "type": "object",
            "required": ["mode"],
            "properties": {
                "mode": {"type": "string", "enum": ["equal", "custom"]},
                "self_share": {"type": "string", "example": "30.00"},
                "partner_share": {"type": "string", "example": "70.00"}
            }
        },
        "handlers.TransactionFields": {
            "type": "object",
            "required": ["description", "amount", "kind", "category", "occurs_on"],
            "properties": {
                "description": {"type": "string"},
                "amount": {"type": "string", "example": "100.00"},
                "kind": {"type": "string", "enum": ["income", "expense"]},
                "category": {"type": "string"},
                "occurs_on": {"type": "string", "example": "2024-03-01"},
                "is_shared": {"type": "boolean"},
                "payer": {"type": "string", "enum": ["self", "partner"]},
                "split_details": {"$ref": "#/definitions/handlers.SplitDetails"}
            }
        },
        "handlers.CreateTransactionRequest": {
            "allOf": [
                {"$ref": "#/definitions/handlers.TransactionFields"},
                {
                    "type": "object",
                    "properties": {
                        "installments": {"type": "integer", "minimum": 1, "maximum": 360},
                        "frequency": {"type": "string", "enum": ["weekly", "monthly", "yearly"]},
                        "recurrence_group": {"type": "string"}
                    }
                }
            ]
        },
        "handlers.TransactionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "description": {"type": "string"},
                "amount": {"type": "string"},
                "kind": {"type": "string"},
                "category": {"type": "string"},
                "occurs_on": {"type": "string"},
                "is_shared": {"type": "boolean"},
                "payer": {"type": "string"},
                "split_details": {"$ref": "#/definitions/handlers.SplitDetails"},
                "recurrence_group": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "handlers.CreateTransactionsResponse": {
            "type": "object",
            "properties": {"transactions": {"type": "array", "items": {"$ref": "#/definitions/handlers.TransactionResponse"}}}
        },
        "handlers.PartialCreateResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/handlers.ErrorDetail"},
                "created": {"type": "array", "items": {"type": "string"}},
                "failed_index": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "handlers.CreateCategoryRequest": {
            "type": "object",
            "required": ["name", "kind"],
            "properties": {"name": {"type": "string"}, "kind": {"type": "string", "enum": ["income", "expense"]}}
        },
        "handlers.CategoryResponse": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "kind": {"type": "string"}, "created_at": {"type": "string"}}
        },
        "handlers.SummaryResponse": {
            "type": "object",
            "properties": {
                "period": {"type": "string", "example": "2024-03"},
                "total_income": {"type": "string"},
                "total_expense": {"type": "string"},
                "current_balance": {"type": "string"},
                "self_paid_shared": {"type": "string"},
                "partner_paid_shared": {"type": "string"},
                "partner_owes_self": {"type": "string"},
                "self_owes_partner": {"type": "string"},
                "net_balance": {"type": "string"},
                "direction": {"type": "string", "enum": ["partner_owes_self", "self_owes_partner", "settled"]},
                "settlement_amount": {"type": "string"},
                "has_shared_transactions": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "duofinance API",
	Description:      "Household finance tracker for two: shared expenses, installments and monthly settlement.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
