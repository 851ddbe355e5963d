package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Issue Tracker API",
        "description": "Issue tracking service with optimistic-locking mutations, bulk operations, CSV import and timeline reconstruction",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Issues", "description": "Issue lifecycle and versioned mutations"},
        {"name": "Bulk", "description": "Multi-issue batches and CSV import"},
        {"name": "Timeline", "description": "Per-issue event history"},
        {"name": "Comments", "description": "Issue discussion threads"},
        {"name": "Labels", "description": "Global and project-scoped labels"},
        {"name": "Attachments", "description": "Issue file attachments"},
        {"name": "Projects", "description": "Project management"},
        {"name": "Users", "description": "User directory"},
        {"name": "Reports", "description": "Aggregated reporting and exports"}
    ],
    "paths": {
        "/issues": {
            "get": {
                "tags": ["Issues"],
                "summary": "List issues",
                "parameters": [
                    {"name": "project_id", "in": "query", "type": "string"},
                    {"name": "assignee_id", "in": "query", "type": "string"},
                    {"name": "creator_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "description": "Comma-separated statuses"},
                    {"name": "priority", "in": "query", "type": "string", "description": "Comma-separated priorities"},
                    {"name": "type", "in": "query", "type": "string", "description": "Comma-separated types"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "include_deleted", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Issues"],
                "summary": "Create issue",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateIssueRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/issues/search": {
            "get": {
                "tags": ["Issues"],
                "summary": "Search issues by title and description",
                "parameters": [
                    {"name": "q", "in": "query", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/issues/{id}": {
            "get": {
                "tags": ["Issues"],
                "summary": "Get issue",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "include_deleted", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Issues"],
                "summary": "Update issue fields",
                "description": "Applies the patch only when expected_version matches the stored version.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateIssueRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Version Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Issues"],
                "summary": "Soft-delete issue",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "expected_version", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Version Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/issues/{id}/restore": {
            "post": {
                "tags": ["Issues"],
                "summary": "Restore a soft-deleted issue",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VersionedRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/issues/{id}/transition": {
            "post": {
                "tags": ["Issues"],
                "summary": "Transition issue status",
                "description": "Moves the issue along the workflow graph. Disallowed transitions yield 422.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransitionIssueRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Version Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Transition Not Allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/issues/{id}/assign": {
            "post": {
                "tags": ["Issues"],
                "summary": "Assign or unassign issue",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignIssueRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Version Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/issues/{id}/labels/{labelId}": {
            "post": {
                "tags": ["Issues"],
                "summary": "Attach label to issue",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "labelId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VersionedRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Issues"],
                "summary": "Detach label from issue",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "labelId", "in": "path", "required": true, "type": "string"},
                    {"name": "expected_version", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/issues/bulk": {
            "post": {
                "tags": ["Bulk"],
                "summary": "Execute a batch of issue operations",
                "description": "Runs creates, updates and deletes under the chosen policy (atomic or best_effort).",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/issues/import": {
            "post": {
                "tags": ["Bulk"],
                "summary": "Import issues from CSV",
                "description": "Accepts a multipart file field or a raw CSV body. Rows are validated individually.",
                "consumes": ["multipart/form-data", "text/csv"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/issues/{id}/timeline": {
            "get": {
                "tags": ["Timeline"],
                "summary": "Page through issue history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "after_time", "in": "query", "type": "string", "description": "RFC3339 cursor, paired with after_seq"},
                    {"name": "after_seq", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/issues/{id}/comments": {
            "get": {
                "tags": ["Comments"],
                "summary": "List issue comments",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "author_id", "in": "query", "type": "string"},
                    {"name": "include_deleted", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Comments"],
                "summary": "Add comment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCommentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/comments/{id}": {
            "patch": {
                "tags": ["Comments"],
                "summary": "Edit comment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateCommentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Version Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Comments"],
                "summary": "Soft-delete comment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "expected_version", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/issues/{id}/attachments": {
            "get": {
                "tags": ["Attachments"],
                "summary": "List issue attachments",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Attachments"],
                "summary": "Upload attachment",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attachments/{id}/download": {
            "get": {
                "tags": ["Attachments"],
                "summary": "Download attachment content",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "produces": ["application/octet-stream"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/projects": {
            "get": {
                "tags": ["Projects"],
                "summary": "List projects",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "owner_id", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Projects"],
                "summary": "Create project",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateProjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/labels": {
            "get": {
                "tags": ["Labels"],
                "summary": "List labels",
                "parameters": [
                    {"name": "project_id", "in": "query", "type": "string"},
                    {"name": "global", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Labels"],
                "summary": "Create label",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLabelRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/top-assignees": {
            "get": {
                "tags": ["Reports"],
                "summary": "Open issue count per assignee",
                "parameters": [
                    {"name": "project_id", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/latency": {
            "get": {
                "tags": ["Reports"],
                "summary": "Resolution latency over a trailing window",
                "parameters": [
                    {"name": "project_id", "in": "query", "type": "string"},
                    {"name": "days", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/velocity": {
            "get": {
                "tags": ["Reports"],
                "summary": "Created versus resolved throughput",
                "parameters": [
                    {"name": "project_id", "in": "query", "type": "string"},
                    {"name": "days", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/statistics": {
            "get": {
                "tags": ["Reports"],
                "summary": "Status distribution and resolution rate",
                "parameters": [
                    {"name": "project_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/exports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a report export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/exports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Get export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "produces": ["text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Expired or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Issue": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "version": {"type": "integer"},
                "is_deleted": {"type": "boolean"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string", "enum": ["open", "in_progress", "resolved", "closed"]},
                "type": {"type": "string", "enum": ["bug", "feature", "improvement", "task", "epic"]},
                "priority": {"type": "string", "enum": ["low", "medium", "high", "critical"]},
                "project_id": {"type": "string"},
                "creator_id": {"type": "string"},
                "assignee_id": {"type": "string"},
                "resolved_at": {"type": "string"},
                "closed_at": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "CreateIssueRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "project_id": {"type": "string"},
                "status": {"type": "string"},
                "type": {"type": "string"},
                "priority": {"type": "string"},
                "assignee_id": {"type": "string"}
            },
            "required": ["title", "project_id"]
        },
        "UpdateIssueRequest": {
            "type": "object",
            "properties": {
                "expected_version": {"type": "integer"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string"},
                "type": {"type": "string"},
                "priority": {"type": "string"},
                "assignee_id": {"type": "string"},
                "clear_assignee": {"type": "boolean"}
            },
            "required": ["expected_version"]
        },
        "TransitionIssueRequest": {
            "type": "object",
            "properties": {
                "expected_version": {"type": "integer"},
                "status": {"type": "string"}
            },
            "required": ["expected_version", "status"]
        },
        "AssignIssueRequest": {
            "type": "object",
            "properties": {
                "expected_version": {"type": "integer"},
                "assignee_id": {"type": "string"}
            },
            "required": ["expected_version"]
        },
        "VersionedRequest": {
            "type": "object",
            "properties": {
                "expected_version": {"type": "integer"}
            },
            "required": ["expected_version"]
        },
        "BulkRequest": {
            "type": "object",
            "properties": {
                "policy": {"type": "string", "enum": ["atomic", "best_effort"]},
                "operations": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/BulkOperationRequest"}
                }
            },
            "required": ["policy", "operations"]
        },
        "BulkOperationRequest": {
            "type": "object",
            "properties": {
                "ref": {"type": "string"},
                "kind": {"type": "string", "enum": ["create", "update", "delete"]},
                "issue_id": {"type": "string"},
                "expected_version": {"type": "integer"},
                "payload": {"$ref": "#/definitions/CreateIssueRequest"},
                "patch": {"$ref": "#/definitions/UpdateIssueRequest"}
            },
            "required": ["ref", "kind"]
        },
        "BulkResult": {
            "type": "object",
            "properties": {
                "policy": {"type": "string"},
                "succeeded": {"type": "array", "items": {"type": "string"}},
                "failed": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "ref": {"type": "string"},
                            "reason": {"type": "string"}
                        }
                    }
                }
            }
        },
        "ImportReport": {
            "type": "object",
            "properties": {
                "total_rows": {"type": "integer"},
                "created_count": {"type": "integer"},
                "failed_count": {"type": "integer"},
                "created_ids": {"type": "array", "items": {"type": "string"}},
                "errors": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "row_number": {"type": "integer"},
                            "field": {"type": "string"},
                            "value": {"type": "string"},
                            "error": {"type": "string"}
                        }
                    }
                },
                "message": {"type": "string"}
            }
        },
        "TimelineEvent": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "issue_id": {"type": "string"},
                "seq": {"type": "integer"},
                "event_type": {"type": "string"},
                "payload": {"type": "object"},
                "actor_id": {"type": "string"},
                "occurred_at": {"type": "string"}
            }
        },
        "CreateCommentRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"}
            },
            "required": ["content"]
        },
        "UpdateCommentRequest": {
            "type": "object",
            "properties": {
                "expected_version": {"type": "integer"},
                "content": {"type": "string"}
            },
            "required": ["expected_version", "content"]
        },
        "CreateProjectRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string", "enum": ["active", "archived"]},
                "owner_id": {"type": "string"}
            },
            "required": ["name"]
        },
        "CreateUserRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["reporter", "developer", "manager", "admin"]},
                "active": {"type": "boolean"}
            },
            "required": ["email", "full_name"]
        },
        "CreateLabelRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "color": {"type": "string"},
                "description": {"type": "string"},
                "project_id": {"type": "string", "description": "Omit for a global label"}
            },
            "required": ["name"]
        },
        "CreateExportRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["top_assignees", "resolution_latency", "velocity", "statistics"]},
                "project_id": {"type": "string"},
                "days": {"type": "integer"},
                "limit": {"type": "integer"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["type", "format"]
        },
        "ExportJob": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string"},
                "status": {"type": "string", "enum": ["QUEUED", "PROCESSING", "FINISHED", "FAILED"]},
                "progress": {"type": "integer"},
                "result_url": {"type": "string"},
                "created_by": {"type": "string"},
                "created_at": {"type": "string"},
                "finished_at": {"type": "string"},
                "error_message": {"type": "string"}
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
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
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
