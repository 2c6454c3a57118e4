package tags

// DefaultCategories are the top-level segments under which path-like tags
// keep their hierarchy.
var DefaultCategories = []string{"ai", "client", "learning", "business", "project"}

// baseMappings is the general synonym table: legacy spellings, content
// types, status and learning tags.
var baseMappings = map[string]string{
	"#F0EEE6": "clippings",
	"#e0e0e0": "reference",
	"#f0f0f0": "note",

	"langchain":              "langchain",
	"lang-chain":             "langchain",
	"langgraph":              "langgraph",
	"lang-graph":             "langgraph",
	"mcp":                    "mcp",
	"model-context-protocol": "mcp",
	"Model Context Protocol": "mcp",
	"graphrag":               "graphrag",
	"graph-rag":              "graphrag",
	"openai":                 "openai",
	"anthropic":              "anthropic",
	"claude":                 "anthropic",
	"llm":                    "ai/llm",
	"ai-agents":              "ai/agents",
	"AI Agents":              "ai/agents",
	"embeddings":             "ai/embeddings",
	"vector-db":              "ai/embeddings",
	"rag":                    "ai/embeddings",

	"moc": "moc",
	"api": "api",
	"rss": "rss",
	"ui":  "ui",
	"ai":  "ai",

	"research":       "research",
	"tutorial":       "tutorial",
	"how-to":         "tutorial",
	"guide":          "tutorial",
	"reference":      "reference",
	"docs":           "reference",
	"documentation":  "reference",
	"idea":           "idea",
	"ideas":          "idea",
	"brainstorm":     "idea",
	"concept":        "idea",
	"meeting":        "meeting",
	"notes":          "meeting",
	"email":          "email",
	"correspondence": "email",
	"daily":          "daily",
	"journal":        "daily",
	"log":            "daily",

	"client":    "client",
	"business":  "business",
	"startup":   "startup",
	"freelance": "freelance",
	"project":   "project",

	"active":    "status/active",
	"draft":     "status/draft",
	"completed": "status/completed",
	"archived":  "status/archived",
	"todo":      "action/todo",
	"follow-up": "action/follow-up",

	"course":        "learning/course",
	"certification": "learning/certification",
	"book":          "learning/book",
	"video":         "learning/video",
	"podcast":       "learning/podcast",
	"conference":    "learning/conference",
	"webinar":       "learning/webinar",
}

// consolidationMappings collapse compound and plural tags into the
// hierarchy. Entries here override baseMappings.
var consolidationMappings = map[string]string{
	"ai-development":                  "ai/development",
	"ai-ideas":                        "idea",
	"ai-tools":                        "ai/tools",
	"ai-consulting":                   "consulting",
	"ai-courses":                      "learning/course",
	"ai-conferences-and-competitions": "learning/conference",
	"ai-articles-and-research":        "ai/research",
	"ai-agent":                        "ai/agents",
	"ai-community":                    "community",
	"ai-integration":                  "ai/development",
	"ai-services":                     "ai/tools",

	"business-strategy":       "business/strategy",
	"business-development":    "business/development",
	"business-intelligence":   "business/analytics",
	"business-model":          "business/strategy",
	"business-automation":     "automation",
	"business-systems":        "business/systems",
	"business-case":           "business/strategy",
	"business-context":        "business",
	"business-research":       "business/research",
	"business-mapping":        "business/strategy",
	"business-report":         "business/analytics",
	"business-operations":     "business/operations",
	"business-plan":           "business/strategy",
	"business-transformation": "business/strategy",
	"business-solutions":      "business/solutions",
	"business-assets":         "business/assets",

	"client-work":          "client",
	"client-materials":     "client",
	"client-communication": "client",

	"tutorial/course": "learning/course",
	"learning-paths":  "learning",
	"courses":         "learning/course",
	"tutorials":       "tutorial",
	"guides":          "tutorial",
	"training":        "learning",
	"certifications":  "learning/certification",

	"development-tools": "ai/tools",
	"tools":             "ai/tools",
	"apis":              "api",
	"api-integration":   "api",
	"api-testing":       "testing",

	"daily-notes":      "daily",
	"daily-email":      "email",
	"email-summary":    "email",
	"email-processing": "email",
	"email-marketing":  "marketing",

	"web-development":           "development",
	"web-presence":              "business/web-presence",
	"_web-presence-development": "business/web-presence",

	"_personal_":           "personal",
	"personal-development": "personal/development",

	"project-management": "project",
	"project-timeline":   "project",

	"content-strategy":     "marketing/content",
	"content-marketing":    "marketing/content",
	"content-calendar":     "marketing/calendar",
	"content-distribution": "marketing/distribution",
	"marketing-strategy":   "marketing/strategy",

	"it-infrastructure": "infrastructure",
	"server-management": "infrastructure",
	"server-setup":      "infrastructure",

	"data-processing": "data",
	"data-sources":    "data",
	"data-security":   "security",

	"_tutorials_":          "tutorial",
	"_business-formation_": "business/formation",

	"meeting-notes": "meeting",
	"meetings":      "meeting",

	"agents":          "ai/agents",
	"templates":       "template",
	"projects":        "project",
	"tasks":           "action/todo",
	"sources":         "source",
	"systems":         "system",
	"solutions":       "solution",
	"recommendations": "recommendation",
	"transcripts":     "transcript",
	"discussions":     "discussion",
	"platforms":       "platform",
	"frameworks":      "framework",
	"pipelines":       "pipeline",
	"servers":         "server",
	"summaries":       "summary",
	"conferences":     "conference",
	"opportunities":   "opportunity",
	"datasets":        "dataset",

	"thought-leadership":        "authority-building",
	"technical-authority":       "authority-building",
	"brainstorming":             "idea",
	"strategic-planning":        "strategy",
	"strategic-decision-making": "strategy",
	"strategic-overview":        "strategy",
	"strategic-connections":     "strategy",

	"anthropic_blog":            "anthropic",
	"anthropic_github":          "anthropic",
	"github_topic_-_mcp":        "mcp",
	"github_topic_-_mcp_server": "mcp",
	"mcp_reddit":                "mcp",
	"mcp_documentation":         "mcp",
	"mcp_github_discussions":    "mcp",
	"mcp-server":                "mcp",
	"npm_-_mcp_packages":        "mcp",
	"dev.to_mcp_tag":            "mcp",
	"medium_-_mcp_topics":       "mcp",
	"pulsemcp_blog":             "pulsemcp",

	"system_files":   "system",
	"remote_vault01": "remote-sync",

	"graph-db":         "database",
	"graph-databases":  "database",
	"vector-databases": "database",
	"database-queries": "database",
	"database-updates": "database",

	"ai/rag":               "ai/embeddings",
	"agentic-rag":          "ai/embeddings",
	"knowledge-graph":      "graphrag",
	"knowledge-network":    "graphrag",
	"knowledge-management": "knowledge-base",

	"family-projects": "family/projects",
	"family/index":    "family",

	"visual-assets":              "visual-assets",
	"visual-organization":        "visual-assets",
	"visual-learning":            "visual-assets",
	"visual-search":              "visual-assets",
	"image-gallery":              "gallery",
	"image-generation":           "ai/tools",
	"screenshots":                "visual-assets",
	"screenshots-and-references": "visual-assets",
	"infographics":               "visual-assets",
	"charts":                     "visual-assets",
	"images":                     "visual-assets",
	"snagit-captures":            "visual-assets",

	"analytics":           "analytics",
	"client-analytics":    "analytics",
	"revenue-analytics":   "analytics",
	"performance-metrics": "analytics",
	"financial-analysis":  "finance",
	"roi-analysis":        "roi",
	"roi-calculator":      "roi",

	"complexity-analysis":      "analysis",
	"connection-analysis":      "analysis",
	"network-analysis":         "analysis",
	"schema-analysis":          "analysis",
	"competitive-intelligence": "analysis",
	"competitor-tracking":      "analysis",

	"workflow": "workflows",

	"--ollama-deep-research": "ollama",
	"second-opinion-dds":     "dental",
	"austin-langchain":       "community",
	"the-build":              "build",
	"mcpcentral.io":          "mcpcentral",
}

// DefaultLayers returns the built-in synonym tables in override order.
func DefaultLayers() []map[string]string {
	return []map[string]string{baseMappings, consolidationMappings}
}
