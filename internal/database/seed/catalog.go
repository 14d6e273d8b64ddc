// Package seed generates the deterministic fixture dataset the console
// starts with: people, projects and partners.
package seed

// Roles a person can hold and a project can require.
var Roles = []string{"PL", "AA", "TA", "DA", "Developer", "Designer"}

// Departments people belong to.
var Departments = []string{"Platform Team", "AI Research", "Service Dev", "Data Ops", "UX Studio"}

// Skills drawn for people.
var Skills = []string{"Java", "Python", "React", "Node.js", "AWS", "TensorFlow", "Figma", "SQL", "Spring Boot"}

// Certifications drawn for people.
var Certifications = []string{"AWS SA", "CKA", "PMP", "Google Cloud DE", "CISSP"}

// ProjectNames are the engagements listed as past experience.
var ProjectNames = []string{"Project Alpha", "Project Beta", "Project Gamma", "Project Delta"}

// Specialties partners are known for.
var Specialties = []string{"SI/SM", "Cloud Infra", "AI/Data", "UX/UI Design", "Mobile App"}

// PartnerCertifications are handed out in order: a partner holding two has the first two.
var PartnerCertifications = []string{"ISO 27001", "CMMI Level 3", "AWS Partner"}

// PartnerDescription is shared by every generated partner.
const PartnerDescription = "Specialized in enterprise system integration and cloud migration services."

// Probabilities used by the generator.
const (
	externalShare = 0.2
	highRiskShare = 0.2
	activeShare   = 0.7
)

// fixtureYear is the calendar year generated dates fall in.
const fixtureYear = 2024
