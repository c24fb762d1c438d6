package models

// Database schema overview:
// 1. profiles - accounts, role admin or student
// 2. courses - created and maintained by admins
// 3. questions - belong to a course, carry difficulty and expected answer
// 4. interviews - one row per completed practice run, answers kept as JSON
// 5. interview_answers - ordered per-question transcripts of an interview
// 6. support_queries - help requests filed by any user
// 7. refresh_tokens, permanent_tokens - hashed session tokens
