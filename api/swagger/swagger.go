package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "OBE Attainment API",
        "description": "Course outcome and program outcome attainment engine",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Attainment", "description": "CO and PO attainment recompute and read model"},
        {"name": "ScoringConfig", "description": "Versioned scoring configuration"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/api/v1/courses/{courseId}/attainment/recompute": {
            "post": {
                "tags": ["Attainment"],
                "summary": "Recompute course outcome attainment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Run results and per-CO failures", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown course", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Recompute already running for the course", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No active scoring config", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "423": {"description": "Semester locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/courses/{courseId}/attainment": {
            "get": {
                "tags": ["Attainment"],
                "summary": "Stored course outcome attainment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown course", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/programs/{programId}/attainment/recompute": {
            "post": {
                "tags": ["Attainment"],
                "summary": "Recompute program outcome attainment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "programId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecomputeProgramRequest"}}
                ],
                "responses": {
                    "200": {"description": "Run results and per-PO failures", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Recompute already running for the scope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No active scoring config", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Inconsistent CO-PO mapping", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "423": {"description": "Semester locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/programs/{programId}/attainment": {
            "get": {
                "tags": ["Attainment"],
                "summary": "Stored program outcome attainment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "programId", "in": "path", "required": true, "type": "string"},
                    {"name": "semesterId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing semester", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/program-outcomes/{poId}/courses/{courseId}/level": {
            "get": {
                "tags": ["Attainment"],
                "summary": "Course-level program outcome value",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "poId", "in": "path", "required": true, "type": "string"},
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Projection; value is null without contributing COs", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown course or program outcome", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Program outcome belongs to another program", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/scoring-configs/active": {
            "get": {
                "tags": ["ScoringConfig"],
                "summary": "Active scoring config",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No active scoring config", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/scoring-configs/{id}": {
            "get": {
                "tags": ["ScoringConfig"],
                "summary": "Scoring config version",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown version", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/scoring-configs": {
            "get": {
                "tags": ["ScoringConfig"],
                "summary": "Scoring config history",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["ScoringConfig"],
                "summary": "Publish a scoring config version",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateScoringConfigRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid config", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RecomputeProgramRequest": {
            "type": "object",
            "required": ["semester_id"],
            "properties": {
                "semester_id": {"type": "string"}
            }
        },
        "CreateScoringConfigRequest": {
            "type": "object",
            "properties": {
                "co_target_marks_percent": {"type": "number"},
                "co_target_percent": {"type": "number"},
                "ia1_weightage": {"type": "number"},
                "ia2_weightage": {"type": "number"},
                "end_sem_weightage": {"type": "number"},
                "direct_weightage": {"type": "number"},
                "indirect_weightage": {"type": "number"},
                "po_target_level": {"type": "number"},
                "level3_threshold": {"type": "number"},
                "level2_threshold": {"type": "number"},
                "level1_threshold": {"type": "number"}
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
