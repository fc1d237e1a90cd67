package platform

const currentUserQuery = `
query {
  user(limit: 1) {
    id
    login
  }
}`

const profileQuery = `
query Profile($userId: Int!) {
  user_public_view(where: {id: {_eq: $userId}}, limit: 1) {
    id
    login
    firstName
    lastName
    level: profile(path: "level")
  }
}`

const totalXPQuery = `
query TotalXP($userId: Int!) {
  transaction_aggregate(where: {userId: {_eq: $userId}, type: {_eq: "xp"}}) {
    aggregate {
      sum {
        amount
      }
    }
  }
}`

const transactionsQuery = `
query Transactions($userId: Int!) {
  transaction(
    where: {userId: {_eq: $userId}, type: {_eq: "xp"}}
    order_by: {createdAt: asc}
  ) {
    id
    amount
    createdAt
    object {
      id
      name
      type
    }
  }
}`

const progressQuery = `
query Progress($userId: Int!) {
  progress(
    where: {userId: {_eq: $userId}, grade: {_gt: 0}, object: {type: {_eq: "project"}}}
    order_by: {updatedAt: desc}
  ) {
    id
    grade
    createdAt
    updatedAt
    object {
      id
      name
      type
    }
  }
}`

const resultsQuery = `
query Results($userId: Int!) {
  result(where: {userId: {_eq: $userId}}) {
    grade
  }
}`
